package main

import (
	"net/http"
)

// SloganResponse carries the slogan currently shown in the page header
type SloganResponse struct {
	Index  int    `json:"index"`
	Slogan string `json:"slogan"`
}

func (rm *RouteManager) sloganHandler(w http.ResponseWriter, r *http.Request) {
	index := rm.rotator.Index()
	respondJSON(w, http.StatusOK, SloganResponse{
		Index:  index,
		Slogan: rm.slogans[index],
	})
}
