package web

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/NeuralEnsemble/download/conf"
	"github.com/NeuralEnsemble/download/domain"
	"github.com/NeuralEnsemble/download/util"
	"github.com/gorilla/context"
	"github.com/julienschmidt/httprouter"
	"github.com/justinas/alice"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Main handlers
var (
	public    string
	templates *template.Template
)

func pageHandler(file string) func(w http.ResponseWriter, r *http.Request) {
	m := func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, public+file)
	}

	return m
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeWithFilter(w http.ResponseWriter, v interface{}, filters ...string) {
	log.Debugf("Filters in web level : %q", filters)
	b, err := util.MarshalWithFilter(v, filters...)
	if err != nil {
		panic(err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(b)
}

// renderPage executes the named template. The templates live in the static
// dir and own all output escaping.
func renderPage(w http.ResponseWriter, status int, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		log.WithError(err).Errorf("Unable to render template %s", name)
	}
}

// renderFailure shows a user-facing error page with a back affordance
func renderFailure(w http.ResponseWriter, status int, message string) {
	renderPage(w, status, "error.tmpl", map[string]string{"Message": message})
}

// Router

// Router handles the web requests routing
type Router struct {
	*httprouter.Router
	publicHandlers alice.Chain
	adminHandlers  alice.Chain
	commonHandlers alice.Chain
	authHandlers   alice.Chain
	appContext     *AppContext
}

// Get handles GET requests
func (r *Router) Get(path string, requires []domain.UserType, handler http.Handler) {
	r.GET(path, wrapHandler(requires, handler))
}

// Post handles POST requests
func (r *Router) Post(path string, requires []domain.UserType, handler http.Handler) {
	r.POST(path, wrapHandler(requires, handler))
}

func handlePublicPath(pubPath string) {
	switch {
	// absolute path
	case len(pubPath) > 1 && (pubPath[0] == '/' || pubPath[0] == '\\'):
		public = pubPath
	// absolute path win
	case len(pubPath) > 2 && pubPath[1] == ':':
		public = pubPath
	// relative
	case len(pubPath) > 1 && pubPath[0] == '.':
		public = pubPath
	default:
		public = "./" + pubPath
	}
	if public[len(public)-1] != '/' && public[len(public)-1] != '\\' {
		public = fmt.Sprintf("%s%c", public, os.PathSeparator)
	}
	log.Infof("Using public path %v", public)
}

// New creates a new router
func New(appC *AppContext, pubPath string) *Router {
	initBruteForceMap(false)
	handlePublicPath(pubPath)
	templates = template.Must(template.ParseGlob(filepath.Join(public, "*.tmpl")))
	r := &Router{Router: httprouter.New()}
	r.appContext = appC
	r.publicHandlers = alice.New(context.ClearHandler, loggingHandler, recoverHandler, clickjackingHandler)
	r.adminHandlers = r.publicHandlers.Append(csrfHandler)
	r.commonHandlers = r.adminHandlers.Append(acceptHandler)
	r.authHandlers = r.commonHandlers.Append(appC.authHandler, appC.permissionsHandler)
	r.registerPublicHandlers()
	r.registerAdminHandlers()
	return r
}

// The public, param-driven surface: a single endpoint selecting between form,
// intake, listing and fetch based on which parameters are present.
func (r *Router) registerPublicHandlers() {
	r.NotFound = r.publicHandlers.ThenFunc(notFoundHandler)

	r.Get("/", nil, r.publicHandlers.ThenFunc(r.appContext.dispatchHandler))
	r.Post("/", nil, r.publicHandlers.ThenFunc(r.appContext.dispatchHandler))
	r.Get("/favicon.ico", nil, r.publicHandlers.ThenFunc(pageHandler("favicon.ico")))
	r.Get("/style.css", nil, r.publicHandlers.ThenFunc(pageHandler("style.css")))
	r.Get("/metrics", nil, r.publicHandlers.Then(promhttp.Handler()))
}

// The admin reporting API, JSON over authenticated sessions
func (r *Router) registerAdminHandlers() {
	anyAdmin := []domain.UserType{domain.UserTypeAdmin, domain.UserTypeViewer}
	adminOnly := []domain.UserType{domain.UserTypeAdmin}

	r.Post("/admin/login", nil, r.commonHandlers.Append(jsonContentTypeHandler, bodyHandler(credentials{})).ThenFunc(r.appContext.loginHandler))
	r.Post("/admin/logout", nil, r.authHandlers.ThenFunc(r.appContext.logoutHandler))
	r.Get("/admin/user", nil, r.authHandlers.ThenFunc(r.appContext.userCurrHandler))
	r.Post("/admin/user", adminOnly, r.authHandlers.Append(jsonContentTypeHandler, bodyHandler(userDetails{})).ThenFunc(r.appContext.handleUserUpdate))
	r.Get("/admin/stats", anyAdmin, r.authHandlers.ThenFunc(r.appContext.statsHandler))
	r.Get("/admin/countries", anyAdmin, r.authHandlers.ThenFunc(r.appContext.countriesHandler))
	r.Get("/admin/requests", anyAdmin, r.authHandlers.ThenFunc(r.appContext.requestsHandler))
	r.Get("/admin/downloads", anyAdmin, r.authHandlers.ThenFunc(r.appContext.downloadLogHandler))
}

func wrapHandler(requires []domain.UserType, h http.Handler) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		context.Set(r, "params", ps)
		context.Set(r, "requires", requires)
		h.ServeHTTP(w, r)
	}
}

// tcpKeepAliveListener sets TCP keep-alive timeouts on accepted
// connections. It's used by ListenAndServe and ListenAndServeTLS so
// dead TCP connections (e.g. closing laptop mid-download) eventually
// go away.
type tcpKeepAliveListener struct {
	*net.TCPListener
}

func (ln tcpKeepAliveListener) Accept() (net.Conn, error) {
	tc, err := ln.AcceptTCP()
	if err != nil {
		return nil, err
	}
	tc.SetKeepAlive(true)
	tc.SetKeepAlivePeriod(3 * time.Minute)
	return tc, nil
}

func redirectToHTTPS(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, conf.Options.ExternalAddress+r.RequestURI, http.StatusMovedPermanently)
}

// Serve - creates the relevant listeners
func (r *Router) Serve() {
	var err error
	if conf.Options.SSL.Cert != "" {
		// First, listen on the HTTP address with redirect
		go func() {
			err := http.ListenAndServe(conf.Options.HTTPAddress, http.HandlerFunc(redirectToHTTPS))
			if err != nil {
				log.Fatal(err)
			}
		}()
		addr := conf.Options.Address
		if addr == "" {
			addr = ":https"
		}
		server := &http.Server{Addr: conf.Options.Address, Handler: r}
		config, err := GetTLSConfig()
		if err != nil {
			log.Fatal(err)
		}
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			log.Fatal(err)
		}
		tlsListener := tls.NewListener(tcpKeepAliveListener{ln.(*net.TCPListener)}, config)
		err = server.Serve(tlsListener)
	} else {
		err = http.ListenAndServe(conf.Options.Address, r)
	}
	if err != nil {
		log.Fatal(err)
	}
}

// 404 not found handler
func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	renderFailure(w, http.StatusNotFound, "Page not found.")
}

// GetTLSConfig ...
func GetTLSConfig() (config *tls.Config, err error) {
	certs := make([]tls.Certificate, 1)
	certs[0], err = tls.X509KeyPair([]byte(conf.Options.SSL.Cert), []byte(conf.Options.SSL.Key))
	if err != nil {
		return nil, err
	}
	config = &tls.Config{
		NextProtos:   []string{"http/1.1"},
		MinVersion:   tls.VersionTLS12,
		Certificates: certs,
	}
	return
}
