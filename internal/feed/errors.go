package feed

import "errors"

// Taxonomie des erreurs visibles côté client. Les erreurs de validation et
// d'authentification sont levées avant toute mutation optimiste ; les autres
// déclenchent un rollback exact du post concerné.
var (
	ErrNotAuthenticated = errors.New("must log in")
	ErrValidation       = errors.New("invalid input")
	ErrNotFound         = errors.New("not found")
	ErrPermission       = errors.New("unauthorized")
	ErrServer           = errors.New("network or server error")
)
