package main

import (
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/ugparu/goavi"
	"github.com/ugparu/goavi/format/avi"
	"github.com/ugparu/goavi/utils/bits/pio"
	"github.com/ugparu/goavi/utils/logger"
	"golang.org/x/image/bmp"
)

// maxAudioRequest bounds the samples returned by one audio request.
const maxAudioRequest = 1 << 20

// handle serialises access to one opened movie.
type handle struct {
	mu   sync.Mutex
	path string
	d    *avi.Demuxer
}

type Server struct {
	server    *http.Server
	router    *gin.Engine
	files     []*handle
	startOnce *sync.Once
	closeOnce *sync.Once
	deadChan  chan any
}

// NewServer opens every movie of paths and routes requests to them.
func NewServer(addr string, paths []string, opts ...avi.Option) (*Server, error) {
	s := &Server{
		startOnce: &sync.Once{},
		closeOnce: &sync.Once{},
		deadChan:  make(chan any),
	}
	for _, path := range paths {
		d, err := avi.Open(path, opts...)
		if err != nil {
			s.closeFiles()
			return nil, err
		}
		s.files = append(s.files, &handle{path: path, d: d})
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	pprof.Register(router)

	router.GET("/files", s.getFiles)
	router.GET("/files/:id/info", s.withFile(s.getInfo))
	router.GET("/files/:id/tree", s.withFile(s.getTree))
	router.GET("/files/:id/frames/:n", s.withFile(s.getFrame))
	router.GET("/files/:id/audio/:ch", s.withFile(s.getAudio))

	s.router = router
	s.server = &http.Server{Addr: addr, Handler: router} //nolint:gosec
	logger.Debug(s, "Initialized and set up")
	return s, nil
}

func (s *Server) String() string {
	return "AVI SERVER"
}

func (s *Server) Start() {
	err := errors.New("HTTP server has been started already")
	s.startOnce.Do(func() {
		defer close(s.deadChan)

		logger.Infof(s, "Starting listening on %s", s.server.Addr)
		if err = s.server.ListenAndServe(); err != nil {
			logger.Warning(s, err.Error())
			err = nil
		}
	})
	if err != nil {
		logger.Error(s, err.Error())
	}
}

func (s *Server) Close() {
	s.closeOnce.Do(func() {
		logger.Warning(s, "Stopping and closing")
		_ = s.server.Close()
		s.closeFiles()
	})
}

func (s *Server) Dead() <-chan any {
	return s.deadChan
}

func (s *Server) closeFiles() {
	for _, h := range s.files {
		h.mu.Lock()
		if err := h.d.Close(); err != nil {
			logger.Errorf(s, "closing %s: %v", h.path, err)
		}
		h.mu.Unlock()
	}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, goavi.ErrInvalidFrameIndex), errors.Is(err, goavi.ErrInvalidStreamIndex):
		return http.StatusNotFound
	case errors.Is(err, goavi.ErrUnsupportedVideoFormat), errors.Is(err, goavi.ErrUnsupportedAudioFormat):
		return http.StatusUnsupportedMediaType
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		logger.Errorf(s, "%s: %v", c.Request.URL.Path, err)
	} else {
		logger.Debugf(s, "%s: %v", c.Request.URL.Path, err)
	}
	c.String(status, err.Error())
}

// withFile resolves :id and holds the movie lock while next runs.
func (s *Server) withFile(next func(*gin.Context, *handle)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id < 0 || id >= len(s.files) {
			c.String(http.StatusNotFound, "no file %q", c.Param("id"))
			return
		}
		h := s.files[id]
		h.mu.Lock()
		defer h.mu.Unlock()
		next(c, h)
	}
}

func (s *Server) getFiles(c *gin.Context) {
	type entry struct {
		ID   int    `json:"id"`
		Path string `json:"path"`
	}
	list := make([]entry, len(s.files))
	for i, h := range s.files {
		list[i] = entry{ID: i, Path: h.path}
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) getInfo(c *gin.Context, h *handle) {
	c.JSON(http.StatusOK, describe(h.path, h.d))
}

func (s *Server) getTree(c *gin.Context, h *handle) {
	c.Header("Content-Type", "text/plain; charset=utf-8")
	var err error
	if c.Query("movi") != "" {
		err = h.d.DumpSamples(c.Writer)
	} else {
		err = h.d.Dump(c.Writer)
	}
	if err != nil {
		logger.Errorf(s, "dump %s: %v", h.path, err)
	}
}

func (s *Server) getFrame(c *gin.Context, h *handle) {
	n, err := strconv.ParseUint(c.Param("n"), 10, 32)
	if err != nil {
		c.String(http.StatusBadRequest, "bad frame number %q", c.Param("n"))
		return
	}
	scale, err := strconv.ParseFloat(c.DefaultQuery("scale", "1"), 64)
	if err != nil {
		c.String(http.StatusBadRequest, "bad scale %q", c.Query("scale"))
		return
	}
	img, err := decodeFrame(h.d, uint32(n))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Type", "image/bmp")
	if err = bmp.Encode(c.Writer, scaled(img, scale)); err != nil {
		logger.Errorf(s, "encode frame %d of %s: %v", n, h.path, err)
	}
}

// getAudio returns count samples of one channel from first on as S16LE.
func (s *Server) getAudio(c *gin.Context, h *handle) {
	ch, err := strconv.Atoi(c.Param("ch"))
	if err != nil {
		c.String(http.StatusBadRequest, "bad channel %q", c.Param("ch"))
		return
	}
	first, err := strconv.ParseUint(c.DefaultQuery("first", "0"), 10, 64)
	if err != nil {
		c.String(http.StatusBadRequest, "bad first sample %q", c.Query("first"))
		return
	}
	count, err := strconv.Atoi(c.DefaultQuery("count", strconv.Itoa(int(h.d.Config().SampleRate))))
	if err != nil || count < 0 || count > maxAudioRequest {
		c.String(http.StatusBadRequest, "bad sample count %q", c.Query("count"))
		return
	}
	samples := make([]int16, count)
	if err = h.d.ReadAudio(ch, first, samples); err != nil {
		s.fail(c, err)
		return
	}
	body := make([]byte, 2*count)
	for i, v := range samples {
		pio.PutI16LE(body[2*i:], v)
	}
	c.Data(http.StatusOK, "application/octet-stream", body)
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", env("AVITOOL_ADDR", ":8080"), "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("no movies to serve")
	}
	srv, err := NewServer(*addr, fs.Args())
	if err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go srv.Start()

	select {
	case <-sigChan:
		logger.Info(srv, "Shutdown signal received")
	case <-srv.Dead():
	}
	srv.Close()
	return nil
}
