package gtfs_web

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/cespare/xxhash/v2"
	"github.com/go-chi/chi/v5"

	"tarediiran-industries.com/transit-dashboard/internal/panel"
)

const htmlContentType = "text/html; charset=utf-8"

func (server *GtfsWebServer) handleDashboard(writer http.ResponseWriter, request *http.Request) {
	session := server.sessions.Get(writer, request)

	viewmodel := buildDashboardVM(dashboardInput{
		Cities:  server.cities,
		City:    session.City(),
		Catalog: server.catalog,
		Panel:   session.Panel(),
		Compose: request.URL.Query().Get("compose"),
		Notice:  session.TakeNotice(),
		Now:     server.now(),
		Form:    server.defaults,
		Poll:    server.poll,
	})

	server.render(writer, "layout.html", viewmodel)
}

func (server *GtfsWebServer) handleCity(writer http.ResponseWriter, request *http.Request) {
	session := server.sessions.Get(writer, request)

	name := request.PostFormValue("city")
	if _, ok := findCity(server.cities, name); !ok {
		http.Error(writer, fmt.Sprintf("unknown city %q", name), http.StatusBadRequest)
		return
	}
	session.SetCity(name)
	backToDashboard(writer, request, "")
}

// handlePanelPartial renders only the panel slot. The ETag is a hash of
// the rendered bytes, so an unchanged panel answers 304.
func (server *GtfsWebServer) handlePanelPartial(writer http.ResponseWriter, request *http.Request) {
	session := server.sessions.Get(writer, request)

	viewmodel := BuildPanelVM(session.Panel(), server.now(), server.poll)
	body, err := server.renderer.RenderBytes("panel.html", viewmodel)
	if err != nil {
		server.log.Error().Err(err).Msg("render panel")
		http.Error(writer, err.Error(), http.StatusInternalServerError)
		return
	}

	etag := fmt.Sprintf(`"%016x"`, xxhash.Sum64(body))
	writer.Header().Set("ETag", etag)
	writer.Header().Set("Cache-Control", "no-cache")
	if viewmodel.PollSeconds > 0 {
		writer.Header().Set("Refresh", fmt.Sprint(viewmodel.PollSeconds))
	}
	if request.Header.Get("If-None-Match") == etag {
		writer.WriteHeader(http.StatusNotModified)
		return
	}

	writer.Header().Set("Content-Type", htmlContentType)
	_, _ = writer.Write(body)
}

func (server *GtfsWebServer) handleOpenPanel(writer http.ResponseWriter, request *http.Request) {
	session := server.sessions.Get(writer, request)

	name := chi.URLParam(request, "name")
	entry, ok := server.catalog.Lookup(name)
	if !ok {
		http.Error(writer, fmt.Sprintf("unknown panel %q", name), http.StatusNotFound)
		return
	}
	if err := request.ParseForm(); err != nil {
		http.Error(writer, err.Error(), http.StatusBadRequest)
		return
	}

	p := entry.New()
	if err := p.Open(PanelParams(request.PostForm, entry)); err != nil {
		// The open panel, if any, stays as it was.
		session.SetNotice(describe(entry.Title, err))
		backToDashboard(writer, request, name)
		return
	}
	session.Replace(p)
	server.log.Debug().Str("session", session.ID).Str("panel", name).Msg("panel opened")
	backToDashboard(writer, request, "")
}

func (server *GtfsWebServer) handlePanelAction(writer http.ResponseWriter, request *http.Request) {
	session := server.sessions.Get(writer, request)
	action := chi.URLParam(request, "action")

	p := session.Panel()
	if action == "close" {
		session.ClosePanel()
		backToDashboard(writer, request, "")
		return
	}
	if p == nil {
		session.SetNotice("No panel is open.")
		backToDashboard(writer, request, "")
		return
	}

	switch action {
	case "next":
		p.NextPage()
	case "prev":
		p.PreviousPage()
	case "page":
		n, ok := ParsePage(request.PostFormValue("page"))
		if !ok {
			http.Error(writer, "page must be a number", http.StatusBadRequest)
			return
		}
		p.GoToPage(n)
	case "search":
		p.SetSearchText(request.PostFormValue("q"))
	case "params":
		if err := request.ParseForm(); err != nil {
			http.Error(writer, err.Error(), http.StatusBadRequest)
			return
		}
		if err := server.applyParams(p, request.PostForm); err != nil {
			session.SetNotice(describe(p.Title(), err))
		}
	case "refetch":
		if err := p.Refetch(); err != nil {
			session.SetNotice(describe(p.Title(), err))
		}
	default:
		http.Error(writer, fmt.Sprintf("unknown panel action %q", action), http.StatusNotFound)
		return
	}
	backToDashboard(writer, request, "")
}

// applyParams sets every declared param present in the form. The first
// rejected change stops the rest.
func (server *GtfsWebServer) applyParams(p panel.Panel, form url.Values) error {
	entry, ok := server.catalog.Lookup(p.Name())
	if !ok {
		return fmt.Errorf("panel %q is not in the catalog", p.Name())
	}
	for _, key := range paramKeys(entry) {
		if _, present := form[key]; !present {
			continue
		}
		if err := p.SetQueryParam(key, form.Get(key)); err != nil {
			return err
		}
	}
	return nil
}

func describe(title string, err error) string {
	var validation *panel.ValidationError
	switch {
	case errors.As(err, &validation):
		return fmt.Sprintf("%s: %s %s.", title, paramLabel(validation.Param), validation.Message)
	case errors.Is(err, panel.ErrClosed):
		return fmt.Sprintf("%s is closed.", title)
	default:
		return fmt.Sprintf("%s: %v", title, err)
	}
}

func backToDashboard(writer http.ResponseWriter, request *http.Request, compose string) {
	target := "/dashboard"
	if compose != "" {
		target += "?compose=" + url.QueryEscape(compose)
	}
	http.Redirect(writer, request, target, http.StatusSeeOther)
}

func (server *GtfsWebServer) render(writer http.ResponseWriter, name string, data any) {
	body, err := server.renderer.RenderBytes(name, data)
	if err != nil {
		server.log.Error().Err(err).Str("template", name).Msg("render")
		http.Error(writer, err.Error(), http.StatusInternalServerError)
		return
	}
	writer.Header().Set("Content-Type", htmlContentType)
	writer.Header().Set("Cache-Control", "no-store")
	_, _ = writer.Write(body)
}
