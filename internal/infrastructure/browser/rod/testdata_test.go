package rod

const (
	BasicHTML = `<!DOCTYPE html>
<html>
<head><title>Test Page</title><style>h1 { color: rgb(255, 0, 0); }</style></head>
<body>
	<h1 id="title" class="headline main" data-test="title">Hello World</h1>
	<a href="/list">Go to list</a>
	<script>window.loaded = true;</script>
</body>
</html>`

	// ListHTML re-creates every <li> on rerender(), leaving old handles
	// detached. reverse() also changes their order.
	ListHTML = `<!DOCTYPE html>
<html>
<body>
	<ul id="list">
		<li class="item">first</li>
		<li class="item">second</li>
		<li class="item">third</li>
	</ul>
	<script>
		function rerender() {
			const ul = document.getElementById('list');
			ul.innerHTML = ul.innerHTML;
		}
		function reverse() {
			const ul = document.getElementById('list');
			const items = Array.from(ul.children).map(li => li.textContent).reverse();
			ul.innerHTML = items.map(t => '<li class="item">' + t + '</li>').join('');
		}
		function drop() {
			document.getElementById('list').innerHTML = '';
		}
	</script>
</body>
</html>`

	FormHTML = `<!DOCTYPE html>
<html>
<body>
	<form id="testForm" action="/submitted" method="get">
		<input id="username" type="text" name="username" value="preset" />
		<input id="remember" type="checkbox" name="remember" checked />
		<input id="locked" type="text" name="locked" disabled />
		<button id="submit" type="submit">Submit</button>
	</form>
	<div id="hidden" style="display:none">secret</div>
	<button id="btn" onclick="document.getElementById('result').textContent = 'Clicked!'">Click Me</button>
	<div id="result"></div>
</body>
</html>`

	DelayedHTML = `<!DOCTYPE html>
<html>
<body>
	<div id="root"></div>
	<script>
		setTimeout(function() {
			const el = document.createElement('p');
			el.id = 'late';
			el.textContent = 'arrived';
			document.getElementById('root').appendChild(el);
		}, 400);
	</script>
</body>
</html>`
)
