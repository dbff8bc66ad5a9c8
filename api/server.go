package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/searchdesk/config"
	"github.com/meghashyamc/searchdesk/db/kvdb"
	"github.com/meghashyamc/searchdesk/db/searchdb"
	"github.com/meghashyamc/searchdesk/logger"
	"github.com/meghashyamc/searchdesk/services/crawl"
	"github.com/meghashyamc/searchdesk/services/ingest"
	"github.com/meghashyamc/searchdesk/services/search"
	"github.com/meghashyamc/searchdesk/validation"
)

const shutdownTimeout = 10 * time.Second

type server struct {
	cfg        *config.Config
	router     *gin.Engine
	httpServer *http.Server
	kvdb       kvdb.DB
	searchdb   searchdb.DB
	ingest     *ingest.Service
	crawl      *crawl.Service
	validator  *validation.Validator
	logger     logger.Logger
}

func Run(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)

	defer cancel()

	s := &server{
		cfg:    cfg,
		logger: logger.New(cfg.GetLogLevel()),
	}
	if err := s.setupDependencies(); err != nil {
		return err
	}
	if err := s.setupRouter(); err != nil {
		return err
	}
	s.setupHTTPServer()
	s.setupGracefulShutdown(ctx)

	return nil
}

func (s *server) setupDependencies() error {
	var err error
	s.kvdb, err = kvdb.New(s.logger, s.cfg)
	if err != nil {
		s.logger.Error("error creating kvDB", "err", err.Error())
		return err
	}
	s.searchdb, err = newSearchDB(s.logger, s.cfg)
	if err != nil {
		s.logger.Error("error creating searchDB", "err", err.Error())
		return err
	}
	s.validator, err = validation.New(s.logger, search.OptionsFromConfig(s.cfg))
	if err != nil {
		s.logger.Error("error creating validator", "err", err.Error())
		return err
	}

	s.ingest = ingest.New(s.logger, s.searchdb, s.kvdb, ingest.NewPDFExtractor(), ingest.OptionsFromConfig(s.cfg))
	s.crawl = crawl.New(s.logger, s.ingest, s.kvdb, crawl.OptionsFromConfig(s.cfg))

	return nil

}

func newSearchDB(logger logger.Logger, cfg *config.Config) (searchdb.DB, error) {
	switch engine := cfg.GetEngine(); engine {
	case config.EngineSolr:
		logger.Info("using solr search engine", "url", cfg.GetSolrURL())
		return searchdb.NewSolr(logger, cfg), nil
	case config.EngineBleve:
		logger.Info("using embedded bleve search engine", "path", cfg.GetIndexPath())
		db, err := searchdb.NewBleve(logger, cfg)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown search engine %q", engine)
	}
}

func (s *server) setupRouter() error {
	router, err := newRouter(s.cfg)
	if err != nil {
		s.logger.Error("error creating router", "err", err.Error())
		return err
	}

	router.Use(loggingMiddleware(s.logger))

	setupRoutes(router, s.cfg, s.logger, s.searchdb, s.ingest, s.crawl, s.validator)

	s.router = router
	return nil
}

func (s *server) setupHTTPServer() {

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", s.cfg.GetPort()),
		Handler: s.router.Handler(),
	}
	s.httpServer = httpServer
	s.logger.Info("starting http server", "addr", httpServer.Addr)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()
}

func (s *server) setupGracefulShutdown(ctx context.Context) {

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		s.logger.Info("starting to shut down http server")
		shutdownCtx := context.Background()
		shutdownCtx, cancel := context.WithTimeout(shutdownCtx, shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error shutting down http server", "err", err)
		}
		s.kvdb.Close()
		s.searchdb.Close()
		s.logger.Info("shut down http server successfully")
	}()

	wg.Wait()
}
