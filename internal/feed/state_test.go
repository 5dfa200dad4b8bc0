package feed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAPI permet de scripter chaque réponse serveur indépendamment.
type stubAPI struct {
	fetchUploads func(ctx context.Context) ([]PostRecord, error)
	toggleLike   func(ctx context.Context, postID int64, username string) (bool, error)
	addComment   func(ctx context.Context, postID int64, username, text string, parentID *int64) (CommentRecord, error)
	updatePost   func(ctx context.Context, postID int64, username, title, description string) error
	deletePost   func(ctx context.Context, postID int64, username string) error
}

func (s *stubAPI) FetchUploads(ctx context.Context) ([]PostRecord, error) {
	if s.fetchUploads != nil {
		return s.fetchUploads(ctx)
	}
	return nil, nil
}

func (s *stubAPI) ToggleLike(ctx context.Context, postID int64, username string) (bool, error) {
	if s.toggleLike != nil {
		return s.toggleLike(ctx, postID, username)
	}
	return true, nil
}

func (s *stubAPI) AddComment(ctx context.Context, postID int64, username, text string, parentID *int64) (CommentRecord, error) {
	if s.addComment != nil {
		return s.addComment(ctx, postID, username, text, parentID)
	}
	return CommentRecord{}, nil
}

func (s *stubAPI) UpdatePost(ctx context.Context, postID int64, username, title, description string) error {
	if s.updatePost != nil {
		return s.updatePost(ctx, postID, username, title, description)
	}
	return nil
}

func (s *stubAPI) DeletePost(ctx context.Context, postID int64, username string) error {
	if s.deletePost != nil {
		return s.deletePost(ctx, postID, username)
	}
	return nil
}

func twoPosts() []PostRecord {
	return []PostRecord{
		{
			ID:        1,
			Title:     "Premier",
			CreatedAt: at(10),
			User:      UserRef{Username: "bob"},
			Media:     []MediaItem{{URL: "a.jpg", Type: "image"}, {URL: "b.jpg", Type: "image"}},
		},
		{
			ID:        2,
			Title:     "Second",
			CreatedAt: at(20),
			User:      UserRef{Username: "alice"},
			Media:     []MediaItem{{URL: "c.mp4", Type: "video"}},
		},
	}
}

func newTestState(t *testing.T, api *stubAPI, posts []PostRecord, username string) *State {
	t.Helper()
	if api.fetchUploads == nil {
		api.fetchUploads = func(context.Context) ([]PostRecord, error) {
			return posts, nil
		}
	}
	s := NewState(api, Session{Username: username}, nil)
	require.NoError(t, s.Refresh(context.Background()))
	return s
}

// ─── Likes ──────────────────────────────────────────────────────────────

func TestToggleLike_Involution(t *testing.T) {
	liked := true
	api := &stubAPI{
		toggleLike: func(context.Context, int64, string) (bool, error) {
			v := liked
			liked = !liked
			return v, nil
		},
	}
	s := newTestState(t, api, twoPosts(), "alice")
	ctx := context.Background()

	require.NoError(t, s.ToggleLike(ctx, 1))
	p := s.findPost(1)
	require.Len(t, p.Likes, 1)
	assert.Equal(t, "alice", p.Likes[0].User.Username)

	require.NoError(t, s.ToggleLike(ctx, 1))
	assert.Empty(t, s.findPost(1).Likes)
}

func TestToggleLike_NotAuthenticated(t *testing.T) {
	s := newTestState(t, &stubAPI{}, twoPosts(), "")

	err := s.ToggleLike(context.Background(), 1)

	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Empty(t, s.findPost(1).Likes)
}

func TestToggleLike_OptimisticBeforeDispatch(t *testing.T) {
	s := newTestState(t, &stubAPI{}, twoPosts(), "alice")
	require.True(t, s.Open(1))

	pending, err := s.BeginToggleLike(1)
	require.NoError(t, err)
	assert.True(t, pending.Liked)

	// Avant toute réponse serveur, le like est déjà visible dans les deux
	// miroirs : flux et vue détail.
	assert.True(t, s.findPost(1).LikedBy("alice"))
	assert.True(t, s.Selected().LikedBy("alice"))
}

func TestToggleLike_RollbackOnFailure(t *testing.T) {
	var notices []string
	api := &stubAPI{
		toggleLike: func(context.Context, int64, string) (bool, error) {
			return false, errors.New("boom")
		},
	}
	posts := twoPosts()
	posts[0].Likes = []LikeRecord{{ID: 7, User: UserRef{Username: "bob"}}}

	s := NewState(api, Session{Username: "alice"}, func(msg string) {
		notices = append(notices, msg)
	})
	api.fetchUploads = func(context.Context) ([]PostRecord, error) { return posts, nil }
	require.NoError(t, s.Refresh(context.Background()))
	require.True(t, s.Open(1))

	err := s.ToggleLike(context.Background(), 1)

	require.Error(t, err)
	// Restauration exacte : même longueur, mêmes entrées, dans le flux
	// comme dans la vue détail.
	require.Len(t, s.findPost(1).Likes, 1)
	assert.Equal(t, int64(7), s.findPost(1).Likes[0].ID)
	require.Len(t, s.Selected().Likes, 1)
	assert.Equal(t, "bob", s.Selected().Likes[0].User.Username)
	assert.NotEmpty(t, notices)
}

func TestToggleLike_StaleFailureDiscarded(t *testing.T) {
	s := newTestState(t, &stubAPI{}, twoPosts(), "alice")

	// Double toggle rapide : deux mutations locales avant toute réponse.
	first, err := s.BeginToggleLike(1)
	require.NoError(t, err)
	second, err := s.BeginToggleLike(1)
	require.NoError(t, err)

	// La réponse du premier toggle arrive en erreur, mais une mutation
	// locale plus récente a pris le dessus : pas de rollback.
	require.Error(t, s.FinishToggleLike(first, false, errors.New("timeout")))
	assert.False(t, s.findPost(1).LikedBy("alice"))

	// La réponse du second (unlike confirmé) s'applique normalement.
	require.NoError(t, s.FinishToggleLike(second, false, nil))
	assert.False(t, s.findPost(1).LikedBy("alice"))
}

func TestToggleLike_ServerVerdictWins(t *testing.T) {
	s := newTestState(t, &stubAPI{}, twoPosts(), "alice")

	pending, err := s.BeginToggleLike(1)
	require.NoError(t, err)
	require.True(t, pending.Liked)

	// Le serveur a calculé l'inverse (course perdue) : on s'aligne.
	require.NoError(t, s.FinishToggleLike(pending, false, nil))
	assert.False(t, s.findPost(1).LikedBy("alice"))
}

// ─── Commentaires ───────────────────────────────────────────────────────

func TestAddComment_PlaceholderReplacedExactlyOnce(t *testing.T) {
	served := CommentRecord{
		ID:        42,
		Text:      "hello",
		CreatedAt: at(30),
		User:      UserRef{Username: "alice"},
	}
	api := &stubAPI{
		addComment: func(context.Context, int64, string, string, *int64) (CommentRecord, error) {
			return served, nil
		},
	}
	s := newTestState(t, api, twoPosts(), "alice")
	require.True(t, s.Open(1))

	require.NoError(t, s.AddComment(context.Background(), "hello"))

	// Un seul commentaire, celui du serveur — ni doublon, ni placeholder.
	comments := s.Selected().Comments
	require.Len(t, comments, 1)
	assert.Equal(t, int64(42), comments[0].ID)
	require.Len(t, s.findPost(1).Comments, 1)
	assert.Equal(t, int64(42), s.findPost(1).Comments[0].ID)
}

func TestAddComment_OptimisticPlaceholderVisible(t *testing.T) {
	s := newTestState(t, &stubAPI{}, twoPosts(), "alice")
	require.True(t, s.Open(1))

	pending, err := s.BeginAddComment("en attente")
	require.NoError(t, err)

	comments := s.Selected().Comments
	require.Len(t, comments, 1)
	assert.Equal(t, pending.TempID, comments[0].ID)
	assert.Equal(t, "alice", comments[0].User.Username)
	// L'identifiant temporaire (epoch ms) ne peut pas entrer en collision
	// avec un id de ligne.
	assert.Greater(t, pending.TempID, int64(1_000_000_000_000))
}

func TestAddComment_RollbackRestoresExactCollection(t *testing.T) {
	api := &stubAPI{
		addComment: func(context.Context, int64, string, string, *int64) (CommentRecord, error) {
			return CommentRecord{}, errors.New("boom")
		},
	}
	posts := twoPosts()
	posts[0].Comments = []CommentRecord{
		{ID: 5, Text: "déjà là", CreatedAt: at(1), User: UserRef{Username: "bob"}},
	}
	s := newTestState(t, api, posts, "alice")
	require.True(t, s.Open(1))

	err := s.AddComment(context.Background(), "ne passera pas")

	require.Error(t, err)
	comments := s.Selected().Comments
	require.Len(t, comments, 1)
	assert.Equal(t, int64(5), comments[0].ID)
	require.Len(t, s.findPost(1).Comments, 1)
	assert.Equal(t, int64(5), s.findPost(1).Comments[0].ID)
}

func TestAddComment_ValidationBeforeMutation(t *testing.T) {
	s := newTestState(t, &stubAPI{}, twoPosts(), "alice")
	require.True(t, s.Open(1))

	err := s.AddComment(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, s.Selected().Comments)

	s.Close()
	err = s.AddComment(context.Background(), "pas de post ouvert")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAddComment_RequiresLogin(t *testing.T) {
	s := newTestState(t, &stubAPI{}, twoPosts(), "")
	s.Open(1)

	err := s.AddComment(context.Background(), "hello")

	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestAddComment_ReplyTargetClearedAtDispatch(t *testing.T) {
	api := &stubAPI{
		addComment: func(_ context.Context, _ int64, _, _ string, parentID *int64) (CommentRecord, error) {
			// Le parentId capturé doit suivre la requête
			require.NotNil(t, parentID)
			return CommentRecord{}, errors.New("boom")
		},
	}
	posts := twoPosts()
	posts[0].Comments = []CommentRecord{
		{ID: 9, Text: "racine", CreatedAt: at(1), User: UserRef{Username: "bob"}},
	}
	s := newTestState(t, api, posts, "alice")
	require.True(t, s.Open(1))
	require.True(t, s.StartReply(9))

	err := s.AddComment(context.Background(), "réponse")

	// Échec serveur, mais la cible de réponse est déréférencée quand même.
	require.Error(t, err)
	assert.Nil(t, s.ReplyTarget())
	assert.Equal(t, ModeViewing, s.Mode())
}

func TestAddComment_StaleFailureDiscarded(t *testing.T) {
	s := newTestState(t, &stubAPI{}, twoPosts(), "alice")
	require.True(t, s.Open(1))

	first, err := s.BeginAddComment("premier")
	require.NoError(t, err)
	second, err := s.BeginAddComment("second")
	require.NoError(t, err)

	// L'échec du premier arrive après la mutation du second : écarté.
	require.Error(t, s.FinishAddComment(first, CommentRecord{}, errors.New("timeout")))
	require.Len(t, s.Selected().Comments, 2)

	// Le second se résout normalement : son placeholder est remplacé.
	require.NoError(t, s.FinishAddComment(second, CommentRecord{ID: 77, Text: "second"}, nil))
	comments := s.Selected().Comments
	require.Len(t, comments, 2)
	assert.Equal(t, first.TempID, comments[0].ID)
	assert.Equal(t, int64(77), comments[1].ID)
}

// ─── Vue détail ─────────────────────────────────────────────────────────

func TestOpen_TearsDownPreviousTransientState(t *testing.T) {
	posts := twoPosts()
	posts[0].Comments = []CommentRecord{
		{ID: 9, Text: "racine", CreatedAt: at(1), User: UserRef{Username: "bob"}},
	}
	s := newTestState(t, &stubAPI{}, posts, "alice")

	require.True(t, s.Open(1))
	require.True(t, s.StartReply(9))
	s.NextMedia()
	s.ShowMoreReplies(9)

	// Ouvrir un autre post pendant que le premier est ouvert : tout l'état
	// transitoire du premier doit disparaître.
	require.True(t, s.Open(2))

	assert.Equal(t, int64(2), s.Selected().ID)
	assert.Equal(t, ModeViewing, s.Mode())
	assert.Nil(t, s.ReplyTarget())
	assert.Equal(t, 0, s.MediaIndex())
	title, desc := s.EditBuffers()
	assert.Equal(t, "Second", title)
	assert.Equal(t, "", desc)
	visible, _ := s.VisibleReplies(9)
	assert.Empty(t, visible)
}

func TestOpen_UnknownPost(t *testing.T) {
	s := newTestState(t, &stubAPI{}, twoPosts(), "alice")
	assert.False(t, s.Open(999))
	assert.Nil(t, s.Selected())
	assert.Equal(t, ModeClosed, s.Mode())
}

func TestEditFlow(t *testing.T) {
	var sentTitle string
	api := &stubAPI{
		updatePost: func(_ context.Context, _ int64, _, title, _ string) error {
			sentTitle = title
			return nil
		},
	}
	s := newTestState(t, api, twoPosts(), "bob")
	require.True(t, s.Open(1))
	require.True(t, s.StartEdit())

	s.SetEditBuffers("Nouveau titre", "desc")
	require.NoError(t, s.SaveEdit(context.Background()))

	assert.Equal(t, "Nouveau titre", sentTitle)
	assert.Equal(t, "Nouveau titre", s.Selected().Title)
	assert.Equal(t, "Nouveau titre", s.findPost(1).Title)
	assert.Equal(t, ModeViewing, s.Mode())
}

func TestSaveEdit_FailureLeavesPostUntouched(t *testing.T) {
	api := &stubAPI{
		updatePost: func(context.Context, int64, string, string, string) error {
			return errors.New("403")
		},
	}
	s := newTestState(t, api, twoPosts(), "alice")
	require.True(t, s.Open(1))
	require.True(t, s.StartEdit())
	s.SetEditBuffers("Pirate", "")

	require.Error(t, s.SaveEdit(context.Background()))

	assert.Equal(t, "Premier", s.Selected().Title)
	assert.Equal(t, "Premier", s.findPost(1).Title)
	assert.Equal(t, ModeEditing, s.Mode())
}

func TestDeleteSelected(t *testing.T) {
	s := newTestState(t, &stubAPI{}, twoPosts(), "bob")
	require.True(t, s.Open(1))

	require.NoError(t, s.DeleteSelected(context.Background()))

	assert.Nil(t, s.Selected())
	assert.Equal(t, ModeClosed, s.Mode())
	require.Len(t, s.Posts(), 1)
	assert.Equal(t, int64(2), s.Posts()[0].ID)
}

func TestDeleteSelected_FailureKeepsPost(t *testing.T) {
	api := &stubAPI{
		deletePost: func(context.Context, int64, string) error {
			return errors.New("403")
		},
	}
	s := newTestState(t, api, twoPosts(), "alice")
	require.True(t, s.Open(1))

	require.Error(t, s.DeleteSelected(context.Background()))

	assert.NotNil(t, s.Selected())
	assert.Len(t, s.Posts(), 2)
}

func TestRefresh_RepointsOpenPost(t *testing.T) {
	fresh := twoPosts()
	fresh[0].Title = "Premier (édité ailleurs)"
	api := &stubAPI{}
	s := newTestState(t, api, twoPosts(), "alice")
	require.True(t, s.Open(1))

	api.fetchUploads = func(context.Context) ([]PostRecord, error) { return fresh, nil }
	require.NoError(t, s.Refresh(context.Background()))

	assert.Equal(t, "Premier (édité ailleurs)", s.Selected().Title)
}

func TestRefresh_ClosesViewWhenPostGone(t *testing.T) {
	api := &stubAPI{}
	s := newTestState(t, api, twoPosts(), "alice")
	require.True(t, s.Open(1))

	api.fetchUploads = func(context.Context) ([]PostRecord, error) {
		return twoPosts()[1:], nil
	}
	require.NoError(t, s.Refresh(context.Background()))

	assert.Nil(t, s.Selected())
	assert.Equal(t, ModeClosed, s.Mode())
}

func TestVisibleReplies_ThroughState(t *testing.T) {
	posts := twoPosts()
	comments := []CommentRecord{{ID: 1, Text: "racine", CreatedAt: at(0), User: UserRef{Username: "bob"}}}
	for i := 0; i < 14; i++ {
		comments = append(comments, CommentRecord{
			ID:        int64(100 + i),
			ParentID:  ptr(1),
			CreatedAt: at(i + 1),
			User:      UserRef{Username: "alice"},
		})
	}
	posts[0].Comments = comments
	s := newTestState(t, &stubAPI{}, posts, "alice")
	require.True(t, s.Open(1))

	visible, hasMore := s.VisibleReplies(1)
	assert.Empty(t, visible)
	assert.True(t, hasMore)

	s.ShowMoreReplies(1)
	visible, hasMore = s.VisibleReplies(1)
	assert.Len(t, visible, 6)
	assert.True(t, hasMore)

	s.ShowMoreReplies(1)
	s.ShowMoreReplies(1)
	visible, hasMore = s.VisibleReplies(1)
	assert.Len(t, visible, 14)
	assert.False(t, hasMore)

	s.HideReplies(1)
	visible, _ = s.VisibleReplies(1)
	assert.Empty(t, visible)
}

func TestCanModifySelected(t *testing.T) {
	tests := []struct {
		name     string
		username string
		expected bool
	}{
		{name: "Owner", username: "bob", expected: true},
		{name: "Superuser", username: "zackysetiawan", expected: true},
		{name: "Other user", username: "alice", expected: false},
		{name: "Anonymous", username: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestState(t, &stubAPI{}, twoPosts(), tt.username)
			require.True(t, s.Open(1)) // post appartenant à bob
			assert.Equal(t, tt.expected, s.CanModifySelected("zackysetiawan"))
		})
	}
}

func TestMediaCarouselBounds(t *testing.T) {
	s := newTestState(t, &stubAPI{}, twoPosts(), "alice")
	require.True(t, s.Open(1)) // deux médias

	s.PrevMedia()
	assert.Equal(t, 0, s.MediaIndex())

	s.NextMedia()
	assert.Equal(t, 1, s.MediaIndex())

	s.NextMedia() // borné au dernier média
	assert.Equal(t, 1, s.MediaIndex())
}

// Deux placeholders créés dans la même milliseconde doivent rester
// distincts, sinon le remplacement par identifiant temporaire en retire deux.
func TestPlaceholderIDsDistinct(t *testing.T) {
	s := newTestState(t, &stubAPI{}, twoPosts(), "alice")
	require.True(t, s.Open(1))

	first, err := s.BeginAddComment("un")
	require.NoError(t, err)
	second, err := s.BeginAddComment("deux")
	require.NoError(t, err)

	assert.NotEqual(t, first.TempID, second.TempID)
}
