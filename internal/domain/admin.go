package domain

type AdminState string

const (
	AdminUnauthenticated AdminState = "UNAUTHENTICATED"
	AdminAuthenticated   AdminState = "AUTHENTICATED"
)

func (s AdminState) String() string {
	return string(s)
}
