// internal/domain/models/movie.go
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Torrent is one downloadable source for a Movie.
type Torrent struct {
	Hash    string `bson:"hash" json:"hash"`
	Quality string `bson:"quality" json:"quality"`
	Seeds   int    `bson:"seeds" json:"seeds"`
	Peers   int    `bson:"peers" json:"peers"`
	Size    string `bson:"size,omitempty" json:"size,omitempty"`
}

// Movie is an entry of the movie library.
type Movie struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	IMDbCode   string             `bson:"imdb_code" json:"imdb_code"`
	Title      string             `bson:"title" json:"title"`
	Year       int                `bson:"year" json:"year"`
	Rating     float64            `bson:"rating" json:"rating"`
	Runtime    int                `bson:"runtime,omitempty" json:"runtime,omitempty"`
	Genres     []string           `bson:"genres" json:"genres"`
	Summary    string             `bson:"summary,omitempty" json:"summary,omitempty"`
	Language   string             `bson:"language,omitempty" json:"language,omitempty"`
	CoverImage string             `bson:"cover_image,omitempty" json:"cover_image,omitempty"`
	Torrents   []Torrent          `bson:"torrents,omitempty" json:"torrents,omitempty"`
}
