package post

import (
	"encoding/json"
	"errors"
	"strings"
)

// MediaItem est la forme unique d'un média attaché à un post. L'ancien schéma
// stockait soit une paire url/type, soit un tableau encodé en JSON dans la
// colonne url avec type = "gallery" : tout est normalisé ici, à la frontière,
// et plus jamais testé en aval.
type MediaItem struct {
	URL  string `json:"url"`
	Type string `json:"type"` // "image" ou "video"
}

var ErrInvalidMedia = errors.New("invalid media payload")

// NormalizeMedia convertit les trois représentations historiques
// (tableau media, paire url/type, galerie JSON dans url) en []MediaItem.
func NormalizeMedia(media []MediaItem, url, mediaType string) ([]MediaItem, error) {
	if len(media) > 0 {
		for i := range media {
			if media[i].URL == "" {
				return nil, ErrInvalidMedia
			}
			if media[i].Type == "" {
				media[i].Type = "image"
			}
		}
		return media, nil
	}

	if url == "" {
		return nil, ErrInvalidMedia
	}

	// Ancienne représentation "gallery" : la colonne url contient le tableau
	if mediaType == "gallery" {
		var items []MediaItem
		if err := json.Unmarshal([]byte(url), &items); err != nil || len(items) == 0 {
			return nil, ErrInvalidMedia
		}
		return NormalizeMedia(items, "", "")
	}

	if mediaType == "" {
		mediaType = guessTypeFromURL(url)
	}
	return []MediaItem{{URL: url, Type: mediaType}}, nil
}

func guessTypeFromURL(url string) string {
	lower := strings.ToLower(url)
	for _, ext := range []string{".mp4", ".mov", ".avi", ".webm"} {
		if strings.HasSuffix(lower, ext) {
			return "video"
		}
	}
	return "image"
}
