// Package orchestrator строит и ведёт дерево выполнения одной ветки
// на удалённой платформе плагинов.
//
// Компоненты:
//   - Resolve   — разрешение NodeRef (Concrete или Symbolic) в ID узла по истории ветки
//   - Waiter    — опрос статуса узла до финального состояния или исчерпания лимита
//   - Scheduler — планирование именованного pipeline как workflow от родительского узла
//   - Joiner    — создание topological join узла, объединяющего несколько веток
//   - Flow      — последовательный цикл этапов: schedule → wait → join → wait → schedule …
//
// Один Flow обслуживает ровно одну ветку и владеет её History и JoinRegistry.
// Разные ветки работают параллельно с независимыми Flow, поэтому общего
// изменяемого состояния между ними нет.
package orchestrator
