// Package api — REST API движка процедур.
//
// Маршруты (все ответы в конверте {"data": ...} или {"error": {...}}):
//
//	GET  /api/v1/flows                                       — каталог процедур
//	GET  /api/v1/universities/{university_id}/flows/{id}     — процедура с прогрессом
//	GET  /api/v1/flows/{id}/validate                         — проверка графа шагов
//	POST /api/v1/steps/{id}/start                            — начать шаг
//	POST /api/v1/steps/{id}/complete                         — завершить шаг
//	GET  /api/v1/users/{user_id}/progress                    — прогресс пользователя
//
// Пользователь передаётся заголовками X-User-ID и X-User-Role
// (для чтения процедуры допустим query-параметр user_id).
package api
