package initdata

import "context"

// Source mints envelopes for one fixed identity. Each call produces a
// fresh envelope so auth_date stays current.
type Source struct {
	builder *Builder
	user    User
}

func NewSource(builder *Builder, user User) *Source {
	return &Source{
		builder: builder,
		user:    user,
	}
}

func (s *Source) Token(_ context.Context) (string, error) {
	return s.builder.Build(s.user)
}
