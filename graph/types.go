package graph

import (
	graphql "github.com/graph-gophers/graphql-go"

	"postql/models"
)

type userResolver struct {
	u *models.User
}

func (r *userResolver) UserName() *string  { return &r.u.Username }
func (r *userResolver) Age() *int32        { return r.u.Age }
func (r *userResolver) FirstName() *string { return &r.u.FirstName }
func (r *userResolver) LastName() *string  { return &r.u.LastName }

// postResolver backs Post, UpdatePostResult and DeletePostResult. A result
// carrying only an error has a nil post.
type postResolver struct {
	p   *models.Post
	err string
}

func postError(msg string) *postResolver {
	return &postResolver{err: msg}
}

func postList(posts []*models.Post) []*postResolver {
	out := make([]*postResolver, len(posts))
	for i, p := range posts {
		out[i] = &postResolver{p: p}
	}
	return out
}

func postListError(msg string) []*postResolver {
	return []*postResolver{postError(msg)}
}

func (r *postResolver) ID() *graphql.ID {
	if r.p == nil {
		return nil
	}
	id := graphql.ID(r.p.ID.Hex())
	return &id
}

func (r *postResolver) Content() *string {
	if r.p == nil {
		return nil
	}
	return &r.p.Content
}

func (r *postResolver) User() *userResolver {
	if r.p == nil || r.p.User == nil {
		return nil
	}
	return &userResolver{u: r.p.User}
}

func (r *postResolver) Error() *string {
	return optional(r.err)
}

type registrationResult struct {
	user *models.User
	err  string
}

func (r *registrationResult) ID() *graphql.ID {
	if r.user == nil {
		return nil
	}
	id := graphql.ID(r.user.ID.Hex())
	return &id
}

func (r *registrationResult) Username() *string {
	if r.user == nil {
		return nil
	}
	return &r.user.Username
}

func (r *registrationResult) Error() *string { return optional(r.err) }

type loginResult struct {
	token string
	err   string
}

func (r *loginResult) Token() *string { return optional(r.token) }
func (r *loginResult) Error() *string { return optional(r.err) }

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
