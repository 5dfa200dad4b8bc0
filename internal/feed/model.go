package feed

import (
	"encoding/json"
	"time"
)

// UserRef est la référence dénormalisée vers l'auteur d'un objet du flux.
// Le username sert d'identité partout : pas de token de session côté client.
type UserRef struct {
	Username string `json:"username"`
}

type MediaItem struct {
	URL  string `json:"url"`
	Type string `json:"type"` // "image" ou "video"
}

type LikeRecord struct {
	ID   int64   `json:"id"`
	User UserRef `json:"user"`
}

type CommentRecord struct {
	ID        int64     `json:"id"`
	ParentID  *int64    `json:"parentId,omitempty"` // nil = commentaire racine
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	User      UserRef   `json:"user"`
}

type PostRecord struct {
	ID          int64           `json:"id"`
	CreatedAt   time.Time       `json:"createdAt"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	User        UserRef         `json:"user"`
	Media       []MediaItem     `json:"media"`
	Likes       []LikeRecord    `json:"likes"`
	Comments    []CommentRecord `json:"comments"`
}

// UnmarshalJSON normalise les représentations historiques d'un post à la
// frontière : tableau media moderne, paire url/type, ou galerie encodée en
// JSON dans la colonne url avec type = "gallery". En aval, seul Media existe.
func (p *PostRecord) UnmarshalJSON(data []byte) error {
	type alias PostRecord
	aux := struct {
		*alias
		URL  string `json:"url"`
		Type string `json:"type"`
	}{alias: (*alias)(p)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if len(p.Media) == 0 && aux.URL != "" {
		if aux.Type == "gallery" {
			var items []MediaItem
			if err := json.Unmarshal([]byte(aux.URL), &items); err == nil {
				p.Media = items
			}
		} else {
			p.Media = []MediaItem{{URL: aux.URL, Type: aux.Type}}
		}
	}
	return nil
}

// Clone copie le post en profondeur : c'est le snapshot retenu avant chaque
// mutation optimiste pour pouvoir restaurer exactement l'état antérieur.
func (p PostRecord) Clone() PostRecord {
	cp := p
	cp.Media = append([]MediaItem(nil), p.Media...)
	cp.Likes = append([]LikeRecord(nil), p.Likes...)
	cp.Comments = append([]CommentRecord(nil), p.Comments...)
	return cp
}

// LikedBy indique si username apparaît dans les likes du post.
func (p *PostRecord) LikedBy(username string) bool {
	for _, l := range p.Likes {
		if l.User.Username == username {
			return true
		}
	}
	return false
}
