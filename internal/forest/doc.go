// Package forest растит лес: по одной ветке на каждый вход.
//
// # Ветка
//
// Для каждой пары inputs.Pair Grower:
//  1. выдаёт ветке UUID и открывает heartbeat-<branch>.log
//  2. сажает seed узел (seed.Planter)
//  3. строит дерево по рецепту (orchestrator.Flow, свой на каждую ветку)
//  4. возвращает domain.TreeRecord {seed, tree}
//
// Ветки выполняются в пуле errgroup с ограничением Workers. Ошибка
// одной ветки не прерывает остальные: она попадает в её TreeRecord.
// Весь рост прерывается только отменой корневого контекста.
//
// # Журнал
//
// SaveLog пишет treeLog.json в выходную директорию: массив
// {seed, tree} в порядке входов.
//
// # События
//
// Начало и завершение веток отправляются в Notifier (mq.Publisher),
// если он задан. Ошибки публикации только логируются.
package forest
