package feed

import "sort"

// RepliesStep est le pas d'affichage incrémental des réponses.
const RepliesStep = 6

// ReplyIndex est l'index parent → enfants d'une collection de commentaires,
// construit une fois par snapshot puis réutilisé (pas de scan linéaire par
// rendu). La clé 0 regroupe les commentaires racine, les IDs réels
// commençant à 1.
type ReplyIndex map[int64][]CommentRecord

// NewReplyIndex construit l'index. Les enfants de chaque parent sont triés
// par date de création croissante, ID croissant en cas d'égalité.
func NewReplyIndex(comments []CommentRecord) ReplyIndex {
	ix := make(ReplyIndex, len(comments))
	for _, cm := range comments {
		var parent int64
		if cm.ParentID != nil {
			parent = *cm.ParentID
		}
		ix[parent] = append(ix[parent], cm)
	}
	for parent := range ix {
		siblings := ix[parent]
		sort.SliceStable(siblings, func(i, j int) bool {
			if siblings[i].CreatedAt.Equal(siblings[j].CreatedAt) {
				return siblings[i].ID < siblings[j].ID
			}
			return siblings[i].CreatedAt.Before(siblings[j].CreatedAt)
		})
	}
	return ix
}

// Thread aplatit tous les descendants de rootID en profondeur d'abord :
// les descendants d'un enfant sont émis juste après lui, avant son frère
// suivant. Opération pure, sans effet de bord.
func (ix ReplyIndex) Thread(rootID int64) []CommentRecord {
	var out []CommentRecord
	var walk func(id int64)
	walk = func(id int64) {
		for _, child := range ix[id] {
			out = append(out, child)
			walk(child.ID)
		}
	}
	walk(rootID)
	return out
}

// Roots renvoie les commentaires racine, dans l'ordre chronologique.
func (ix ReplyIndex) Roots() []CommentRecord {
	return ix[0]
}

// BuildReplyTree est le raccourci index + parcours pour un seul root.
func BuildReplyTree(rootID int64, comments []CommentRecord) []CommentRecord {
	return NewReplyIndex(comments).Thread(rootID)
}

// PaginateReplies fenêtre les réponses sur visibleCount éléments, borné à
// [0, len]. Rien n'est jeté : seule la fenêtre d'affichage change.
func PaginateReplies(replies []CommentRecord, visibleCount int) ([]CommentRecord, bool) {
	if visibleCount < 0 {
		visibleCount = 0
	}
	if visibleCount > len(replies) {
		visibleCount = len(replies)
	}
	return replies[:visibleCount], visibleCount < len(replies)
}
