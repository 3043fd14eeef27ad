package webui

import "html/template"

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>{{if .Heading}}{{.Heading}} - {{end}}stubrouter</title>
  <style>
    body { font-family: sans-serif; margin: 2em; }
    ul.stubs { list-style: none; padding: 0; }
    li.stub { border: 1px solid #ccc; margin: 0 0 1em; padding: .5em; }
    li.stub textarea { width: 100%; font-family: monospace; }
    .stub-head { display: flex; gap: 1em; }
    .stub-name { flex: 1; }
    .stub-name[readonly] { background: #eee; }
    .flash { color: #a00; }
  </style>
</head>
<body>
  <nav><a href="/">Targets</a>
  {{if .Operator}}<form method="post" action="{{.LogoutPath}}" class="logout">Signed in as {{.Operator}} <input type="submit" value="Sign out" /></form>{{end}}
  </nav>
  {{if .Heading}}
  <h1>{{.Heading}}</h1>
  {{if .Flash}}<p class="flash">{{.Flash}}</p>{{end}}
  <form method="post" class="list-controls">
    <input type="submit" value="Add stub" formaction="{{.AddURL}}" class="button" />
    <input type="submit" value="Reload" formaction="{{.ReloadURL}}" class="button" />
  </form>
  <ul class="stubs">
  {{range .Entries}}{{.}}{{end}}
  </ul>
  {{else}}
  <h1>stubrouter</h1>
  {{if .Targets}}
  <p>Choose a target:</p>
  <ul class="targets">
    {{range .Targets}}<li><a href="{{$.EditorPath}}?target={{.}}">{{.}}</a></li>
    {{end}}
  </ul>
  {{else}}
  <p>No targets configured.</p>
  {{end}}
  {{end}}
</body>
</html>
`))

type pageData struct {
	Operator   string
	LogoutPath string
	Heading    string
	Flash      string
	Targets    []string
	Entries    []template.HTML
	EditorPath string
	AddURL     string
	ReloadURL  string
}

var loginTmpl = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Sign in - stubrouter</title>
  <style>
    body { font-family: sans-serif; margin: 2em; }
    .flash { color: #a00; }
  </style>
</head>
<body>
  <h1>Sign in</h1>
  {{if .Error}}<p class="flash">{{.Error}}</p>{{end}}
  <form method="post" action="/login">
    <input type="hidden" name="next" value="{{.Next}}" />
    <label>Token <input name="token" type="password" autocomplete="off" /></label>
    <input type="submit" value="Sign in" class="button" />
  </form>
  <p>Create a token with <code>stubrouter token --user &lt;name&gt;</code>.</p>
</body>
</html>
`))

type loginData struct {
	Next  string
	Error string
}
