// Package inputs отображает входную директорию плагина в пары
// (вход, выход) для веток.
//
// FileMapper выбирает файлы по glob-шаблону, где сегмент "**"
// соответствует любому числу директорий ("**/*dcm" — все файлы,
// оканчивающиеся на dcm, на любой глубине). DirMapperDeep выбирает
// листовые директории. Порядок пар лексикографический по пути входа.
package inputs
