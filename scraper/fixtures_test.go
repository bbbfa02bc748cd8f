package scraper

const productPage = `<!DOCTYPE html>
<html>
<head>
  <title>Amazon.com: Acme Noise Cancelling Headphones</title>
  <meta name="description" content="Acme wireless headphones with adaptive noise cancelling.">
</head>
<body>
  <div id="wayfinding-breadcrumbs_feature_div">
    <ul>
      <li><a href="/electronics"> Electronics </a></li>
      <li><span>›</span></li>
      <li><a href="/headphones">Headphones</a></li>
    </ul>
  </div>
  <span id="productTitle">  Acme Noise Cancelling Headphones  </span>
  <div class="priceToPay">
    <span class="a-price-symbol">$</span><span class="a-price-whole">1,234.</span>
  </div>
  <span class="a-price a-text-price"><span class="a-offscreen">$1,499.99</span></span>
  <span class="savingsPercentage">-18%</span>
  <div id="availability"><span>In Stock</span></div>
  <img id="landingImage" data-a-dynamic-image='{"https://img.example.com/1.jpg":[500,500],"https://img.example.com/2.jpg":[300,300]}'>
  <div id="feature-bullets">
    <ul>
      <li><span class="a-list-item">Industry leading noise cancellation with two processors</span></li>
      <li><span class="a-list-item">Short</span></li>
      <li><span class="a-list-item">Up to 30 hours of battery life with quick charging</span></li>
    </ul>
  </div>
</body>
</html>`
