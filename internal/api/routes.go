package api

import (
	"net/http"
	"net/http/pprof"
	"runtime"

	"solmeme-pipeline/internal/api/handlers"
	"solmeme-pipeline/internal/api/middleware"
	"solmeme-pipeline/internal/service"
	"solmeme-pipeline/internal/websocket"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies содержит все зависимости для API handlers
type Dependencies struct {
	Portfolio  handlers.SnapshotSource
	Candidates handlers.CandidateStore
	Decisions  handlers.DecisionStore
	Trades     handlers.TradeStore
	Denylist   *service.DenylistService
	Hub        *websocket.Hub
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Назначение:
// Центральное место для определения всех API endpoints.
// Регистрирует handlers для каждого маршрута.
// Применяет middleware к группам маршрутов.
// Организует версионирование API (v1).
//
// Структура маршрутов:
//
// /api/v1/
//
//	├── /portfolio
//	│   └── GET / - текущий снэпшот портфеля (§4.6)
//	├── /candidates
//	│   └── GET / - последние кандидаты, прошедшие intake (§4.1-4.3)
//	├── /decisions/
//	│   ├── GET / - последние решения Scoring Engine (§4.5)
//	│   └── GET /{address} - решения по конкретному адресу
//	├── /trades/
//	│   ├── GET / - последние симулированные сделки (§4.6)
//	│   └── GET /{address} - сделки по конкретному адресу
//	└── /denylist/
//	    ├── GET / - получить deny-лист
//	    ├── POST / - добавить адрес в deny-лист
//	    └── DELETE /{address} - удалить адрес из deny-листа
//
// /ws/
//
//	└── /stream - WebSocket для real-time обновлений конвейера
//
// Middleware применяется в следующем порядке:
// 1. Recovery (для всех маршрутов)
// 2. Logging (для всех маршрутов)
// 3. CORS (для всех маршрутов)
// 4. DebugAuth (только для /debug)
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	// Глобальные middleware (применяются ко всем маршрутам)
	router.Use(middleware.Recovery)
	router.Use(middleware.Logging)
	router.Use(middleware.CORS)

	// Создание handlers с внедрением зависимостей
	var portfolioHandler *handlers.PortfolioHandler
	if deps != nil && deps.Portfolio != nil {
		portfolioHandler = handlers.NewPortfolioHandler(deps.Portfolio)
	}

	var candidateHandler *handlers.CandidateHandler
	if deps != nil && deps.Candidates != nil {
		candidateHandler = handlers.NewCandidateHandler(deps.Candidates)
	}

	var decisionHandler *handlers.DecisionHandler
	if deps != nil && deps.Decisions != nil {
		decisionHandler = handlers.NewDecisionHandler(deps.Decisions)
	}

	var tradeHandler *handlers.TradeHandler
	if deps != nil && deps.Trades != nil {
		tradeHandler = handlers.NewTradeHandler(deps.Trades)
	}

	var denylistHandler *handlers.DenylistHandler
	if deps != nil && deps.Denylist != nil {
		denylistHandler = handlers.NewDenylistHandler(deps.Denylist)
	}

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Portfolio routes
	if portfolioHandler != nil {
		api.HandleFunc("/portfolio", portfolioHandler.GetPortfolio).Methods("GET")
	}

	// Candidate routes
	if candidateHandler != nil {
		api.HandleFunc("/candidates", candidateHandler.GetCandidates).Methods("GET")
	}

	// Decision routes
	if decisionHandler != nil {
		api.HandleFunc("/decisions", decisionHandler.GetRecentDecisions).Methods("GET")
		api.HandleFunc("/decisions/{address}", decisionHandler.GetDecisionByAddress).Methods("GET")
	}

	// Trade routes
	if tradeHandler != nil {
		api.HandleFunc("/trades", tradeHandler.GetRecentTrades).Methods("GET")
		api.HandleFunc("/trades/{address}", tradeHandler.GetTradesByAddress).Methods("GET")
	}

	// Denylist routes
	if denylistHandler != nil {
		api.HandleFunc("/denylist", denylistHandler.GetDenylist).Methods("GET")
		api.HandleFunc("/denylist", denylistHandler.AddToDenylist).Methods("POST")
		api.HandleFunc("/denylist/{address}", denylistHandler.RemoveFromDenylist).Methods("DELETE")
	}

	// WebSocket route для real-time обновлений
	if deps != nil && deps.Hub != nil {
		router.HandleFunc("/ws/stream", func(w http.ResponseWriter, r *http.Request) {
			websocket.ServeWS(deps.Hub, w, r)
		}).Methods("GET")
	}

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// ============================================================
	// Prometheus metrics endpoint
	// ============================================================
	// GET /metrics - экспорт метрик для Prometheus
	// Используется для мониторинга производительности торгового ядра
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// ============================================================
	// pprof endpoints для профилирования
	// ============================================================
	// Защищены middleware.DebugAuth - HTTP Basic auth (DEBUG_USERNAME/DEBUG_PASSWORD).
	// - /debug/pprof/         - индекс всех профилей
	// - /debug/pprof/profile  - CPU профиль (30 сек по умолчанию)
	// - /debug/pprof/heap     - профиль памяти
	// - /debug/pprof/goroutine - список горутин
	// - /debug/pprof/trace    - execution trace
	//
	// Пример использования:
	// go tool pprof http://localhost:8080/debug/pprof/profile
	// go tool pprof http://localhost:8080/debug/pprof/heap

	debug := router.PathPrefix("/debug").Subrouter()
	debug.Use(middleware.DebugAuth)

	pprofRouter := debug.PathPrefix("/pprof").Subrouter()
	pprofRouter.HandleFunc("/", pprof.Index)
	pprofRouter.HandleFunc("/cmdline", pprof.Cmdline)
	pprofRouter.HandleFunc("/profile", pprof.Profile)
	pprofRouter.HandleFunc("/symbol", pprof.Symbol)
	pprofRouter.HandleFunc("/trace", pprof.Trace)

	// Handlers для специфичных профилей
	pprofRouter.HandleFunc("/heap", func(w http.ResponseWriter, r *http.Request) {
		pprof.Handler("heap").ServeHTTP(w, r)
	})
	pprofRouter.HandleFunc("/goroutine", func(w http.ResponseWriter, r *http.Request) {
		pprof.Handler("goroutine").ServeHTTP(w, r)
	})
	pprofRouter.HandleFunc("/block", func(w http.ResponseWriter, r *http.Request) {
		pprof.Handler("block").ServeHTTP(w, r)
	})
	pprofRouter.HandleFunc("/threadcreate", func(w http.ResponseWriter, r *http.Request) {
		pprof.Handler("threadcreate").ServeHTTP(w, r)
	})
	pprofRouter.HandleFunc("/mutex", func(w http.ResponseWriter, r *http.Request) {
		pprof.Handler("mutex").ServeHTTP(w, r)
	})
	pprofRouter.HandleFunc("/allocs", func(w http.ResponseWriter, r *http.Request) {
		pprof.Handler("allocs").ServeHTTP(w, r)
	})

	// Runtime stats endpoint (дополнительно)
	debug.HandleFunc("/runtime", func(w http.ResponseWriter, r *http.Request) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{`))
		w.Write([]byte(`"goroutines":` + itoa(runtime.NumGoroutine()) + `,`))
		w.Write([]byte(`"heap_alloc_mb":` + ftoa(float64(m.HeapAlloc)/1024/1024) + `,`))
		w.Write([]byte(`"heap_sys_mb":` + ftoa(float64(m.HeapSys)/1024/1024) + `,`))
		w.Write([]byte(`"num_gc":` + itoa(int(m.NumGC)) + `,`))
		w.Write([]byte(`"gc_pause_total_ms":` + ftoa(float64(m.PauseTotalNs)/1e6)))
		w.Write([]byte(`}`))
	}).Methods("GET")

	return router
}

// Вспомогательные функции для JSON без fmt
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	pos := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		pos--
		b[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		b[pos] = '-'
	}
	return string(b[pos:])
}

func ftoa(f float64) string {
	// Простое форматирование с 2 знаками после запятой
	i := int(f * 100)
	whole := i / 100
	frac := i % 100
	if frac < 0 {
		frac = -frac
	}
	fracStr := itoa(frac)
	if len(fracStr) == 1 {
		fracStr = "0" + fracStr
	}
	return itoa(whole) + "." + fracStr
}
