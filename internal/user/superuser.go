package user

// SuperuserUsername est le seul compte autorisé à modifier ou supprimer
// les posts des autres. Pas de rôles, pas d'ACL : deux niveaux, c'est tout.
const SuperuserUsername = "zackysetiawan"

// IsSuperuser vérifie si un nom d'utilisateur correspond au superuser
func IsSuperuser(username string) bool {
	return username == SuperuserUsername
}

// CanModify indique si actingUsername a le droit de modifier une ressource
// appartenant à ownerUsername (propriétaire ou superuser uniquement).
func CanModify(actingUsername, ownerUsername string) bool {
	return actingUsername == ownerUsername || IsSuperuser(actingUsername)
}
