package main

import (
	"net/http"

	"github.com/banshee-data/triphubs/internal/db"
	"github.com/banshee-data/triphubs/internal/web"
)

// newMux builds the route table. The admin debug routes (live SQL, backup)
// carry no auth of their own, so they are mounted only in dev mode.
func newMux(database *db.DB, dev bool) (*http.ServeMux, error) {
	mux := http.NewServeMux()

	if dev {
		if err := database.AttachAdminRoutes(mux); err != nil {
			return nil, err
		}
	}

	mux.Handle("/", web.NewServer(database).ServeMux())
	return mux, nil
}
