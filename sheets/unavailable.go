package sheets

import "context"

// Unavailable is used when credentials could not be loaded. Every call
// fails with the wrapped credential error so pages can explain what is missing.
type Unavailable struct {
	Err error
}

func (u Unavailable) Title(context.Context, string) (string, error) { return "", u.Err }

func (u Unavailable) Worksheets(context.Context, string) ([]string, error) { return nil, u.Err }

func (u Unavailable) ReadGrid(context.Context, string, string) ([][]string, error) {
	return nil, u.Err
}

func (u Unavailable) AppendRows(context.Context, string, string, [][]string) error { return u.Err }

func (u Unavailable) UpdateRange(context.Context, string, string, string, [][]string) error {
	return u.Err
}

func (u Unavailable) AddWorksheet(context.Context, string, string, []string) error { return u.Err }
