package browser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjectMarkdown_DropsChrome(t *testing.T) {
	html := `<html><body>
		<header>Site navigation lives here with plenty of words to pass the count</header>
		<nav>home about contact products blog careers press investors support legal</nav>
		<p>This paragraph carries the actual substance of the article with enough words to survive pruning.</p>
		<footer>Copyright and legal boilerplate with enough words to otherwise pass thresholds</footer>
		<iframe src="https://ads.example"></iframe>
	</body></html>`

	md := ProjectMarkdown(html, 0.3)

	assert.Contains(t, md, "actual substance of the article")
	assert.NotContains(t, md, "Site navigation")
	assert.NotContains(t, md, "Copyright")
	assert.NotContains(t, md, "careers press")
}

func TestProjectMarkdown_Headings(t *testing.T) {
	html := `<body><h1>Main Title</h1><h3>Sub Section</h3>
		<p>Body text long enough to clear the minimum word threshold for content blocks here.</p></body>`

	md := ProjectMarkdown(html, 0.3)

	assert.Contains(t, md, "# Main Title")
	assert.Contains(t, md, "### Sub Section")
}

func TestProjectMarkdown_WordThreshold(t *testing.T) {
	html := `<body>
		<p>Short.</p>
		<p>This one is comfortably longer than ten words so it should definitely be kept intact.</p>
	</body>`

	md := ProjectMarkdown(html, 0.3)

	assert.NotContains(t, md, "Short.")
	assert.Contains(t, md, "comfortably longer")
}

func TestProjectMarkdown_LinkFarmPruned(t *testing.T) {
	linkFarm := `<p>` + strings.Repeat(`<a href="/x">link text goes here</a> `, 5) + `</p>`
	html := `<body>` + linkFarm + `
		<p>Real prose that happens to contain <a href="/ref">one reference</a> among many ordinary words making it content.</p>
	</body>`

	md := ProjectMarkdown(html, 0.3)

	assert.NotContains(t, md, "link text goes here")
	assert.Contains(t, md, "Real prose")
}

func TestProjectMarkdown_ImagesPreserved(t *testing.T) {
	html := `<body>
		<p>A caption paragraph describing the chart below in sufficient words to be retained here.
			<img src="https://img.example/chart.png" alt="weekly chart"></p>
		<img src="https://img.example/solo.png" alt="solo">
		<img src="/relative.png" alt="rel">
	</body>`

	md := ProjectMarkdown(html, 0.3)

	assert.Contains(t, md, "![weekly chart](https://img.example/chart.png)")
	assert.Contains(t, md, "![solo](https://img.example/solo.png)")
	assert.NotContains(t, md, "relative.png")
}

func TestProjectMarkdown_ListsAndCode(t *testing.T) {
	html := `<body>
		<ul>
			<li>First finding stated with enough words to clear the pruning threshold easily today</li>
			<li>Second finding stated with enough words to clear the pruning threshold easily today</li>
		</ul>
		<pre>func main() {}</pre>
	</body>`

	md := ProjectMarkdown(html, 0.3)

	assert.Contains(t, md, "- First finding")
	assert.Contains(t, md, "- Second finding")
	assert.Contains(t, md, "```\nfunc main() {}\n```")
}

func TestProjectMarkdown_EmptyInput(t *testing.T) {
	assert.Equal(t, "", ProjectMarkdown("", 0.3))
	assert.Equal(t, "", ProjectMarkdown("   \n  ", 0.3))
}
