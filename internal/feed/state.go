package feed

import (
	"context"
	"strings"
	"time"
)

// Session est l'identité du client, injectée une seule fois à la
// construction : aucun composant ne relit une identité ambiante.
type Session struct {
	Username string
}

func (s Session) LoggedIn() bool {
	return s.Username != ""
}

// Mode est l'état de la vue détail du post ouvert.
type Mode int

const (
	ModeClosed Mode = iota
	ModeViewing
	ModeEditing
	ModeReplying
)

// State est le miroir en mémoire du flux : la liste des posts, le post
// éventuellement ouvert en vue détail, et l'état transitoire de cette vue.
// Il appartient à une seule goroutine (la boucle d'événements de l'UI) et
// n'est jamais muté en parallèle : les mutations optimistes sont appliquées
// de façon synchrone avant tout point de suspension réseau.
type State struct {
	session Session
	api     API
	notify  func(message string) // notice bloquante côté utilisateur

	posts    []PostRecord
	selected *PostRecord // copie de travail, pas un pointeur dans posts
	mode     Mode

	editTitle       string
	editDescription string
	replyTo         *int64
	mediaIndex      int
	visibleReplies  map[int64]int

	// Numéro de séquence de la dernière mutation locale appliquée, par post.
	// Une réponse serveur capturée sous un numéro plus ancien est périmée
	// et ne doit plus toucher l'état local.
	seq map[int64]uint64

	// Dernier identifiant temporaire émis : deux placeholders créés dans la
	// même milliseconde doivent rester distincts.
	lastTempID int64
}

func NewState(api API, session Session, notify func(string)) *State {
	if notify == nil {
		notify = func(string) {}
	}
	return &State{
		session:        session,
		api:            api,
		notify:         notify,
		mode:           ModeClosed,
		visibleReplies: make(map[int64]int),
		seq:            make(map[int64]uint64),
	}
}

func (s *State) Session() Session    { return s.session }
func (s *State) Posts() []PostRecord { return s.posts }
func (s *State) Mode() Mode          { return s.mode }
func (s *State) ReplyTarget() *int64 { return s.replyTo }
func (s *State) MediaIndex() int     { return s.mediaIndex }

func (s *State) EditBuffers() (title, description string) {
	return s.editTitle, s.editDescription
}

// Selected renvoie le post ouvert, ou nil.
func (s *State) Selected() *PostRecord {
	return s.selected
}

// Refresh reconstruit le miroir local depuis le serveur. Le post ouvert est
// re-pointé sur sa version fraîche ; s'il a disparu, la vue se ferme.
func (s *State) Refresh(ctx context.Context) error {
	uploads, err := s.api.FetchUploads(ctx)
	if err != nil {
		s.notify(err.Error())
		return err
	}
	s.posts = uploads

	if s.selected != nil {
		if fresh := s.findPost(s.selected.ID); fresh != nil {
			cp := fresh.Clone()
			s.selected = &cp
		} else {
			s.Close()
		}
	}
	return nil
}

// Open ouvre la vue détail d'un post. L'état transitoire de la vue
// précédente est intégralement démonté avant d'initialiser la nouvelle :
// rien ne doit fuir d'un post à l'autre.
func (s *State) Open(postID int64) bool {
	s.teardown()

	p := s.findPost(postID)
	if p == nil {
		return false
	}
	cp := p.Clone()
	s.selected = &cp
	s.mode = ModeViewing
	s.editTitle = cp.Title
	s.editDescription = cp.Description
	return true
}

// Close ferme la vue détail et démonte tout l'état transitoire.
func (s *State) Close() {
	s.teardown()
}

func (s *State) teardown() {
	s.selected = nil
	s.mode = ModeClosed
	s.editTitle = ""
	s.editDescription = ""
	s.replyTo = nil
	s.mediaIndex = 0
	s.visibleReplies = make(map[int64]int)
}

// CanModifySelected applique la règle plate à deux niveaux : propriétaire
// ou superuser, rien d'autre.
func (s *State) CanModifySelected(superuser string) bool {
	if s.selected == nil || !s.session.LoggedIn() {
		return false
	}
	return s.session.Username == s.selected.User.Username || s.session.Username == superuser
}

// StartEdit passe la vue en édition, buffers initialisés depuis le post.
func (s *State) StartEdit() bool {
	if s.selected == nil || s.mode != ModeViewing {
		return false
	}
	s.mode = ModeEditing
	s.editTitle = s.selected.Title
	s.editDescription = s.selected.Description
	return true
}

func (s *State) CancelEdit() {
	if s.mode != ModeEditing {
		return
	}
	s.mode = ModeViewing
	if s.selected != nil {
		s.editTitle = s.selected.Title
		s.editDescription = s.selected.Description
	}
}

func (s *State) SetEditBuffers(title, description string) {
	s.editTitle = title
	s.editDescription = description
}

// StartReply cible un commentaire du post ouvert pour y répondre.
func (s *State) StartReply(commentID int64) bool {
	if s.selected == nil || s.mode == ModeClosed || s.mode == ModeEditing {
		return false
	}
	for _, cm := range s.selected.Comments {
		if cm.ID == commentID {
			id := commentID
			s.replyTo = &id
			s.mode = ModeReplying
			return true
		}
	}
	return false
}

func (s *State) CancelReply() {
	s.replyTo = nil
	if s.mode == ModeReplying {
		s.mode = ModeViewing
	}
}

// NextMedia / PrevMedia déplacent le carrousel du post ouvert, bornés.
func (s *State) NextMedia() {
	if s.selected == nil {
		return
	}
	if s.mediaIndex < len(s.selected.Media)-1 {
		s.mediaIndex++
	}
}

func (s *State) PrevMedia() {
	if s.mediaIndex > 0 {
		s.mediaIndex--
	}
}

// ShowMoreReplies révèle un cran de réponses supplémentaires sous un
// commentaire racine ; HideReplies referme tout. Aucune donnée n'est jetée.
func (s *State) ShowMoreReplies(rootID int64) {
	s.visibleReplies[rootID] += RepliesStep
}

func (s *State) HideReplies(rootID int64) {
	s.visibleReplies[rootID] = 0
}

// VisibleReplies matérialise l'arbre de réponses d'un commentaire racine du
// post ouvert et le fenêtre selon le compteur courant.
func (s *State) VisibleReplies(rootID int64) (visible []CommentRecord, hasMore bool) {
	if s.selected == nil {
		return nil, false
	}
	thread := BuildReplyTree(rootID, s.selected.Comments)
	return PaginateReplies(thread, s.visibleReplies[rootID])
}

// ─── Like ───────────────────────────────────────────────────────────────

// PendingLike est le contexte d'un toggle en vol : le snapshot pour le
// rollback et le numéro de séquence pour écarter les réponses périmées.
type PendingLike struct {
	PostID int64
	Liked  bool // état local après application optimiste
	seq    uint64
	prev   PostRecord
}

// BeginToggleLike applique le basculement localement, avant tout appel
// réseau, et rend le contexte à résoudre avec la réponse du serveur.
// Échoue sans toucher l'état si l'utilisateur n'est pas connecté.
func (s *State) BeginToggleLike(postID int64) (*PendingLike, error) {
	if !s.session.LoggedIn() {
		return nil, ErrNotAuthenticated
	}
	p := s.findPost(postID)
	if p == nil {
		return nil, ErrNotFound
	}

	pending := &PendingLike{
		PostID: postID,
		prev:   p.Clone(),
	}

	liked := false
	s.mutatePost(postID, func(post *PostRecord) {
		if post.LikedBy(s.session.Username) {
			kept := post.Likes[:0:0]
			for _, l := range post.Likes {
				if l.User.Username != s.session.Username {
					kept = append(kept, l)
				}
			}
			post.Likes = kept
		} else {
			post.Likes = append(post.Likes, LikeRecord{User: UserRef{Username: s.session.Username}})
			liked = true
		}
	})

	pending.Liked = liked
	pending.seq = s.bumpSeq(postID)
	return pending, nil
}

// FinishToggleLike résout un toggle avec le verdict du serveur. Sur échec,
// le snapshot pré-optimiste est restauré à l'identique — sauf si une
// mutation locale plus récente a déjà pris le dessus (la réponse est alors
// simplement écartée).
func (s *State) FinishToggleLike(pending *PendingLike, liked bool, err error) error {
	if err != nil {
		if !s.stale(pending.PostID, pending.seq) {
			s.restorePost(pending.prev)
		}
		s.notify(err.Error())
		return err
	}

	if s.stale(pending.PostID, pending.seq) {
		return nil // réponse périmée, l'état local a déjà avancé
	}

	// Le serveur fait foi : si son verdict contredit l'état optimiste
	// (course perdue côté serveur), on s'aligne.
	if liked != pending.Liked {
		s.mutatePost(pending.PostID, func(post *PostRecord) {
			if liked && !post.LikedBy(s.session.Username) {
				post.Likes = append(post.Likes, LikeRecord{User: UserRef{Username: s.session.Username}})
			} else if !liked && post.LikedBy(s.session.Username) {
				kept := post.Likes[:0:0]
				for _, l := range post.Likes {
					if l.User.Username != s.session.Username {
						kept = append(kept, l)
					}
				}
				post.Likes = kept
			}
		})
	}
	return nil
}

// ToggleLike est l'enchaînement complet : application optimiste, appel
// serveur, confirmation ou rollback exact.
func (s *State) ToggleLike(ctx context.Context, postID int64) error {
	pending, err := s.BeginToggleLike(postID)
	if err != nil {
		s.notify(err.Error())
		return err
	}
	liked, err := s.api.ToggleLike(ctx, postID, s.session.Username)
	return s.FinishToggleLike(pending, liked, err)
}

// ─── Commentaire ────────────────────────────────────────────────────────

// PendingComment est le contexte d'un commentaire en vol : l'identifiant
// temporaire du placeholder, le snapshot et le numéro de séquence.
type PendingComment struct {
	PostID   int64
	TempID   int64
	ParentID *int64 // capturé depuis la cible de réponse au moment de l'envoi
	seq      uint64
	prev     PostRecord
}

// BeginAddComment insère un placeholder local (identifiant temporaire,
// horodatage courant, parentId capturé depuis la cible de réponse) dans le
// post ouvert. La cible de réponse est déréférencée dès l'envoi, quelle que
// soit l'issue.
func (s *State) BeginAddComment(text string) (*PendingComment, error) {
	if !s.session.LoggedIn() {
		return nil, ErrNotAuthenticated
	}
	if s.selected == nil {
		return nil, ErrValidation
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrValidation
	}

	parentID := s.replyTo
	s.CancelReply()

	pending := &PendingComment{
		PostID:   s.selected.ID,
		TempID:   s.nextTempID(),
		ParentID: parentID,
		prev:     s.selected.Clone(),
	}

	placeholder := CommentRecord{
		ID:        pending.TempID,
		ParentID:  parentID,
		Text:      text,
		CreatedAt: time.Now(),
		User:      UserRef{Username: s.session.Username},
	}
	s.mutatePost(pending.PostID, func(post *PostRecord) {
		post.Comments = append(post.Comments, placeholder)
	})

	pending.seq = s.bumpSeq(pending.PostID)
	return pending, nil
}

// FinishAddComment remplace le placeholder par l'enregistrement serveur
// (retiré par identifiant temporaire, puis le vrai ajouté — jamais les
// deux), ou restaure le post exactement tel qu'avant l'insertion.
func (s *State) FinishAddComment(pending *PendingComment, served CommentRecord, err error) error {
	if err != nil {
		if !s.stale(pending.PostID, pending.seq) {
			s.restorePost(pending.prev)
		}
		s.notify(err.Error())
		return err
	}

	if s.stale(pending.PostID, pending.seq) {
		return nil
	}

	s.mutatePost(pending.PostID, func(post *PostRecord) {
		kept := post.Comments[:0:0]
		for _, cm := range post.Comments {
			if cm.ID != pending.TempID {
				kept = append(kept, cm)
			}
		}
		post.Comments = append(kept, served)
	})
	return nil
}

// AddComment est l'enchaînement complet placeholder → serveur → résolution.
func (s *State) AddComment(ctx context.Context, text string) error {
	pending, err := s.BeginAddComment(text)
	if err != nil {
		s.notify(err.Error())
		return err
	}
	served, err := s.api.AddComment(ctx, pending.PostID, s.session.Username, text, pending.ParentID)
	return s.FinishAddComment(pending, served, err)
}

// ─── Édition / suppression ──────────────────────────────────────────────

// SaveEdit envoie les buffers d'édition au serveur puis, sur succès
// seulement, les applique au post local (pas d'optimisme ici : un échec ne
// laisserait aucun état intermédiaire à défaire).
func (s *State) SaveEdit(ctx context.Context) error {
	if !s.session.LoggedIn() {
		return ErrNotAuthenticated
	}
	if s.selected == nil || s.mode != ModeEditing {
		return ErrValidation
	}

	postID := s.selected.ID
	title, description := s.editTitle, s.editDescription

	if err := s.api.UpdatePost(ctx, postID, s.session.Username, title, description); err != nil {
		s.notify(err.Error())
		return err
	}

	s.mutatePost(postID, func(post *PostRecord) {
		post.Title = title
		post.Description = description
	})
	s.mode = ModeViewing
	return nil
}

// DeleteSelected supprime le post ouvert côté serveur puis localement.
func (s *State) DeleteSelected(ctx context.Context) error {
	if !s.session.LoggedIn() {
		return ErrNotAuthenticated
	}
	if s.selected == nil {
		return ErrValidation
	}

	postID := s.selected.ID
	if err := s.api.DeletePost(ctx, postID, s.session.Username); err != nil {
		s.notify(err.Error())
		return err
	}

	kept := s.posts[:0:0]
	for _, p := range s.posts {
		if p.ID != postID {
			kept = append(kept, p)
		}
	}
	s.posts = kept
	s.Close()
	return nil
}

// ─── Aides internes ─────────────────────────────────────────────────────

func (s *State) findPost(postID int64) *PostRecord {
	for i := range s.posts {
		if s.posts[i].ID == postID {
			return &s.posts[i]
		}
	}
	return nil
}

// mutatePost applique fn à l'entrée du flux ET à la copie ouverte en vue
// détail quand il s'agit du même post, pour que les deux miroirs restent
// alignés sans jamais rafraîchir tout le flux.
func (s *State) mutatePost(postID int64, fn func(*PostRecord)) {
	if p := s.findPost(postID); p != nil {
		fn(p)
	}
	if s.selected != nil && s.selected.ID == postID {
		fn(s.selected)
	}
}

// restorePost remet un snapshot pré-optimiste, dans le flux et dans la vue
// détail si elle montre encore ce post (garde anti-réponse tardive sur une
// vue recyclée).
func (s *State) restorePost(prev PostRecord) {
	if p := s.findPost(prev.ID); p != nil {
		*p = prev.Clone()
	}
	if s.selected != nil && s.selected.ID == prev.ID {
		cp := prev.Clone()
		s.selected = &cp
	}
}

// PatchPost remplace un seul post par sa version serveur, sans toucher aux
// autres entrées du flux (et donc sans écraser leurs éditions optimistes).
// C'est la voie de resynchronisation à préférer au refetch global.
func (s *State) PatchPost(fresh PostRecord) {
	if p := s.findPost(fresh.ID); p != nil {
		*p = fresh.Clone()
	}
	if s.selected != nil && s.selected.ID == fresh.ID {
		cp := fresh.Clone()
		s.selected = &cp
	}
}

func (s *State) nextTempID() int64 {
	id := time.Now().UnixMilli()
	if id <= s.lastTempID {
		id = s.lastTempID + 1
	}
	s.lastTempID = id
	return id
}

func (s *State) bumpSeq(postID int64) uint64 {
	s.seq[postID]++
	return s.seq[postID]
}

func (s *State) stale(postID int64, seq uint64) bool {
	return s.seq[postID] != seq
}
