package recipe

import "errors"

// Ошибки рецептов.
var (
	// ErrInvalidRecipe — рецепт не прошёл валидацию.
	ErrInvalidRecipe = errors.New("invalid recipe")

	// ErrUnsupportedFormat — расширение файла не поддерживается.
	ErrUnsupportedFormat = errors.New("unsupported recipe format")
)
