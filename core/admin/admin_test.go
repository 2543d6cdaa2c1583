package admin

import (
	"bytes"
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/rors/core"
)

type book struct {
	Title string
	Pages int
	Read  bool
}

func bookAdmin() *ModelAdmin {
	return &ModelAdmin{
		Name:           "books",
		VerboseName:    "book",
		ListDisplay:    []string{"title", "pages", "read"},
		ListFilter:     []string{"read"},
		DateHierarchy:  "published_at",
		Ordering:       []string{"-pages", "title"},
		ReadonlyFields: []string{"pages"},
		ListPerPage:    50,
		Labels:         map[string]string{"read": "Already read"},
		ReadonlyFieldsFunc: func(obj interface{}) []string {
			if obj.(book).Read {
				return []string{"read", "pages"}
			}
			return nil
		},
		Display: func(obj interface{}, field string) interface{} {
			b := obj.(book)
			switch field {
			case "title":
				return b.Title
			case "pages":
				return b.Pages
			case "read":
				return b.Read
			}
			return nil
		},
	}
}

func TestModelAdmin_NewListRequest(t *testing.T) {
	ma := bookAdmin()
	tests := []struct {
		name    string
		query   url.Values
		want    ListRequest
		wantErr bool
	}{
		{
			name:  "defaults",
			query: url.Values{},
			want: ListRequest{
				Filters:  Params{},
				Ordering: []core.DBOrdering{{Field: "pages"}, {Field: "title", Ascending: true}},
				Page:     core.Page{Limit: 50},
			},
		},
		{
			name: "params",
			query: url.Values{
				"search": {" go "}, "read": {"true"}, "author": {"lol"}, "ordering": {"title"},
				"limit": {"10"}, "offset": {"20"}, "year": {"2024"}, "month": {"2"},
			},
			want: ListRequest{
				Search:    "go",
				Filters:   Params{"read": {"true"}},
				Ordering:  []core.DBOrdering{{Field: "title", Ascending: true}},
				Page:      core.Page{Limit: 10, Offset: 20},
				Hierarchy: core.DateHierarchy{Year: 2024, Month: 2},
			},
		},
		{
			name:  "limit capped",
			query: url.Values{"limit": {"1000"}},
			want: ListRequest{
				Filters:  Params{},
				Ordering: []core.DBOrdering{{Field: "pages"}, {Field: "title", Ascending: true}},
				Page:     core.Page{Limit: 50},
			},
		},
		{name: "invalid offset", query: url.Values{"offset": {"lol"}}, wantErr: true},
		{name: "invalid year", query: url.Values{"year": {"lol"}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ma.NewListRequest(tt.query)
			if tt.wantErr {
				_, ok := err.(*core.ValidationError)
				assert.True(t, ok, "want *core.ValidationError, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestModelAdmin_StripReadonly(t *testing.T) {
	ma := bookAdmin()
	data := func() map[string]json.RawMessage {
		return map[string]json.RawMessage{
			"title": json.RawMessage(`"Go"`),
			"pages": json.RawMessage(`300`),
			"read":  json.RawMessage(`false`),
		}
	}

	d := data()
	assert.Equal(t, []string{"pages"}, ma.StripReadonly(d, nil))
	assert.Len(t, d, 2)

	d = data()
	assert.Equal(t, []string{"pages", "read"}, ma.StripReadonly(d, book{Read: true}))
	assert.Equal(t, map[string]json.RawMessage{"title": json.RawMessage(`"Go"`)}, d)

	assert.Empty(t, ma.StripReadonly(map[string]json.RawMessage{}, book{}))
}

func TestModelAdmin_Label(t *testing.T) {
	ma := bookAdmin()
	assert.Equal(t, "Already read", ma.Label("read"))
	assert.Equal(t, "Submission date", ma.Label("submission_date"))
	assert.Equal(t, "", ma.Label(""))
}

func TestModelAdmin_Export(t *testing.T) {
	ma := bookAdmin()
	ma.VerboseNamePlural = "books"
	objs := []interface{}{book{Title: "Go", Pages: 300, Read: true}, book{Title: "SQL", Pages: 120}}

	var buf bytes.Buffer
	require.NoError(t, ma.Export(&buf, objs))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("books")
	require.NoError(t, err)
	want := [][]string{
		{"Title", "Pages", "Already read"},
		{"Go", "300", "TRUE"},
		{"SQL", "120", "FALSE"},
	}
	assert.Equal(t, want, rows)
}

func TestParams(t *testing.T) {
	p := Params{"week": {"3"}, "active": {"false"}, "name": {" A1 "}, "bad": {"lol"}, "start": {"2024-01-08"}}

	week, err := p.Int("week")
	assert.NoError(t, err)
	assert.Equal(t, 3, week)

	missing, err := p.Int("missing")
	assert.NoError(t, err)
	assert.Zero(t, missing)

	active, err := p.Bool("active")
	assert.NoError(t, err)
	if assert.NotNil(t, active) {
		assert.False(t, *active)
	}

	assert.Equal(t, "A1", p.String("name"))

	_, err = p.Int("bad")
	assert.Error(t, err)
	_, err = p.Bool("bad")
	assert.Error(t, err)
	_, err = p.Date("bad")
	assert.Error(t, err)

	start, err := p.Date("start")
	assert.NoError(t, err)
	assert.Equal(t, "2024-01-08", start.String())
}

func TestSite(t *testing.T) {
	site := NewSite()
	site.Register(bookAdmin())
	site.Register(&ModelAdmin{Name: "authors", VerboseName: "author"})

	ma, ok := site.Get("authors")
	require.True(t, ok)
	assert.Equal(t, "authors", ma.VerboseNamePlural)
	assert.Equal(t, DefaultListPerPage, ma.ListPerPage)

	_, ok = site.Get("lol")
	assert.False(t, ok)

	names := make([]string, 0, 2)
	for _, m := range site.Models() {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"books", "authors"}, names)

	assert.Panics(t, func() { site.Register(&ModelAdmin{Name: "books"}) })
}
