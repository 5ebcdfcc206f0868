package httpapi

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Minimal host screen for quick LAN play: shows the address phones should
// open. The real client lives elsewhere; this is enough for a living room.
var indexTmpl = template.Must(template.New("index").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Paperbend</title>
<style>
  body { font-family: system-ui, sans-serif; margin: 2rem; text-align: center; }
  code { font-size: 1.4rem; }
</style>
</head>
<body>
<h1>Paperbend</h1>
<p>Join on your phone at</p>
<p><code>{{.ServerURL}}</code></p>
<p>Create a game via <code>POST /api/games</code>, then scan
<code>/api/games/&lt;id&gt;/qr</code> to join.</p>
</body>
</html>
`))

func (a *API) index(c *gin.Context) {
	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	_ = indexTmpl.Execute(c.Writer, gin.H{"ServerURL": a.baseURL()})
}
