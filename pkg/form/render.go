package form

import (
	"bytes"
	"html/template"
)

var fragmentTmpl = template.Must(template.New("stub").Parse(`<li class="stub"{{if .ID}} id="stub-{{.ID}}"{{end}}>
  <form method="post"{{if .SaveURL}} action="{{.SaveURL}}"{{end}} data-target="{{.Target}}" data-isnew="{{.IsNew}}">
    <input type="hidden" name="isnew" value="{{.IsNew}}" />
    <div class="stub-head">
      <input name="path" type="text" class="stub-name"{{if not .IsNew}} readonly{{end}} value="{{.Values.Path}}" />
      <div class="head-controls">
        <input type="submit" value="Save" class="button" />
        <input type="submit" value="Remove" class="button remove-button"{{if .RemoveURL}} formaction="{{.RemoveURL}}"{{end}} />
      </div>
    </div>
    <input name="code" type="number" class="number" placeholder="Code" value="{{.Values.Code}}" />
    <textarea name="headers" rows="2" placeholder="Headers">{{.Headers}}</textarea>
    <textarea name="data" rows="5" placeholder="Data">{{.Values.Data}}</textarea>
    <input name="timeout" type="number" class="number" placeholder="Timeout, ms" value="{{.Values.Timeout}}" />
  </form>
</li>
`))

// Option configures a rendered fragment.
type Option func(*fragment)

// WithID sets the element id suffix of the fragment.
func WithID(id string) Option {
	return func(f *fragment) {
		f.ID = id
	}
}

// WithActions sets the URLs the Save and Remove buttons submit to.
func WithActions(saveURL, removeURL string) Option {
	return func(f *fragment) {
		f.SaveURL = saveURL
		f.RemoveURL = removeURL
	}
}

type fragment struct {
	Target    string
	ID        string
	Values    Values
	Headers   string
	IsNew     bool
	SaveURL   string
	RemoveURL string
}

// Render returns the editable fragment for one stub entry.
//
// Every field is emitted as an input. The path input is read-only unless
// isNew is set, and the flag itself is carried by the fragment so that a
// later submit can read it back. Render has no side effects; fragments can
// be appended one after another into a single list.
func Render(target string, v Values, isNew bool, opts ...Option) (template.HTML, error) {
	f := &fragment{
		Target:  target,
		Values:  v,
		Headers: v.Headers,
		IsNew:   isNew,
	}
	if f.Headers == "" {
		f.Headers = EmptyHeaders
	}
	for _, opt := range opts {
		opt(f)
	}

	var buf bytes.Buffer
	if err := fragmentTmpl.Execute(&buf, f); err != nil {
		return "", err
	}
	// #nosec G203 -- produced by html/template, all values are escaped
	return template.HTML(buf.String()), nil
}
