package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods("GET")

	r.HandleFunc("/register", s.handleRegister).Methods("POST")
	r.HandleFunc("/login", s.handleLogin).Methods("POST")
	r.HandleFunc("/token", s.handleRefreshToken).Methods("POST")
	r.HandleFunc("/logout", s.handleLogout).Methods("GET")

	// download is reachable without the bearer gate: links are shared as
	// plain URLs
	r.HandleFunc("/files/{fileId}/{fileName}", s.handleDownloadFile).Methods("GET")

	authed := r.NewRoute().Subrouter()
	authed.Use(s.requireAuth)
	authed.HandleFunc("/todos", s.handleAddTodo).Methods("POST")
	authed.HandleFunc("/todos/{id}", s.handleEditTodo).Methods("PATCH")
	authed.HandleFunc("/todo-list", s.handleTodoList).Methods("GET")
	authed.HandleFunc("/todos", s.handleDeleteAllTodos).Methods("DELETE")
	authed.HandleFunc("/todos/{todoId}/files", s.handleUploadFile).Methods("POST")
	authed.HandleFunc("/files/{fileId}/download-link", s.handleEditDownloadLink).Methods("PATCH")
	authed.HandleFunc("/files/{fileId}/{todoId}", s.handleDeleteFile).Methods("DELETE")

	return r
}
