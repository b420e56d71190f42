// Package cli реализует команды просмотра dylld.
//
// # Обзор
//
// Команды работают с CUBE через Inspector (cube.Client) и не
// запускают рост деревьев. Они нужны, чтобы проверить, что pipelines
// и плагины рецепта есть на платформе, посмотреть узлы ветки и
// разобрать treeLog.json после запуска.
//
//	dylld pipelines --name "Leg Length"
//	dylld node 42 --json
//	dylld recipe --file recipe.yaml --seed xray.dcm
//	dylld treelog /outgoing/treeLog.json
//	dylld events --kind finished
//
// ## Output
//
// Два режима:
//   - таблицы (go-pretty) по умолчанию
//   - JSON с флагом --json
//
// Данные выводятся в stdout, сообщения в stderr.
//
// ## Commands
//
// Каждая команда создаётся фабричной функцией (NewPipelinesCmd и т.д.),
// принимающей ClientFunc и OutputFunc: замыкания, которые создают
// клиента и Output после разбора PersistentFlags.
package cli
