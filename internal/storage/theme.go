package storage

import (
	"context"
	"strings"
)

// Theme names. The empty stored value means dark.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Theme returns the stored theme preference, defaulting to dark.
func (s *Store) Theme(ctx context.Context) (string, error) {
	v, ok, err := s.Get(ctx, KeyTheme)
	if err != nil {
		return ThemeDark, err
	}
	if ok && strings.TrimSpace(v) == ThemeLight {
		return ThemeLight, nil
	}
	return ThemeDark, nil
}

// SetTheme persists the preference. Dark is stored as the empty token.
func (s *Store) SetTheme(ctx context.Context, theme string) error {
	if theme == ThemeLight {
		return s.Set(ctx, KeyTheme, ThemeLight)
	}
	return s.Set(ctx, KeyTheme, "")
}
