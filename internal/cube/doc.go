// Package cube реализует REST-клиент платформы ChRIS (CUBE).
//
// # Обзор
//
// Client — единственная точка контакта с удалённой платформой.
// Реализует orchestrator.Platform и seed.Platform поверх net/http.
//
//	client, err := cube.New(cube.Config{
//	    URL:      "http://localhost:8000/api/v1/",
//	    User:     "chris",
//	    Password: "chris1234",
//	}, logger)
//
// # Ошибки
//
//   - 404 → domain.ErrNotFound
//   - ошибка транспорта, 5xx → domain.ErrRemoteUnavailable
//   - остальные 4xx → *APIError
//
// # Ограничение нагрузки
//
// Все ветки делят один Client. Количество одновременных запросов
// ограничено semaphore.Weighted (Config.MaxRequests), чтобы N веток
// не превращались в N одновременных опросов платформы.
//
// # Списки
//
// CUBE отдаёт списки в формате DRF: {"count", "next", "results"}.
// Client идёт по ссылкам next, пока они есть.
package cube
