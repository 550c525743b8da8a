package frontend

//go:generate go run github.com/a-h/templ/cmd/templ generate

import "github.com/a-h/templ"

type ShellProps struct {
	Title   string
	APIBase string
}

func (p ShellProps) title() string {
	if p.Title == "" {
		return "Daybook"
	}
	return p.Title
}

func ShellHandler(p ShellProps) *templ.ComponentHandler {
	return templ.Handler(Shell(p))
}
