// Package seed сажает корневой узел ветки.
//
// Для каждого входного файла в родительском plugin instance создаётся
// фильтрующий узел (pl-shexec в режиме pfdorun), который копирует
// только этот файл. Созданный узел становится корнем ветки, от него
// оркестратор строит дерево.
//
// Если посадка не удалась, Planter повторяет её один раз и
// сохраняет ошибки обеих попыток в domain.SeedResult.
package seed
