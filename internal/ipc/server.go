package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"strings"
	"sync"
	"time"

	"log/slog"

	"aircheck/internal/api"
	"aircheck/internal/daemon"
	"aircheck/internal/logging"
	"aircheck/internal/logs"
	"aircheck/internal/recorder"
	"aircheck/internal/retention"
	"aircheck/internal/store"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Aircheck", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String("socket", s.path))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func expiryString(t *time.Time) string {
	if t == nil {
		return ""
	}
	return api.FormatTime(*t)
}

func (s *service) Ping(_ PingRequest, resp *PingResponse) error {
	resp.PID = os.Getpid()
	resp.Running = s.daemon.Running()
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.DBPath = status.DBPath
	resp.LockPath = status.LockFilePath
	resp.Summary = api.FromSummary(status.Summary)
	resp.Dependencies = api.FromDependencies(status.Dependencies)
	return nil
}

func (s *service) StationList(_ StationListRequest, resp *StationListResponse) error {
	stations, err := s.daemon.ListStations(s.ctx)
	if err != nil {
		return err
	}
	resp.Stations = api.FromStations(stations)
	return nil
}

func (s *service) StationDescribe(req StationDescribeRequest, resp *StationDescribeResponse) error {
	if strings.TrimSpace(req.Ref) == "" {
		return errors.New("station reference is required")
	}
	station, tests, err := s.daemon.DescribeStation(s.ctx, req.Ref)
	if err != nil {
		return err
	}
	resp.Station = api.FromStation(station)
	resp.RecentTests = api.FromToolTests(tests)
	return nil
}

func (s *service) StationAdd(req StationAddRequest, resp *StationAddResponse) error {
	s.log().Debug("station add requested", logging.String("call_letters", req.CallLetters))
	stored, err := s.daemon.AddStation(s.ctx, &store.Station{
		Name:        req.Name,
		CallLetters: req.CallLetters,
		StreamURL:   req.StreamURL,
		Timezone:    req.Timezone,
	})
	if err != nil {
		return err
	}
	resp.Station = api.FromStation(stored)
	return nil
}

func (s *service) ShowList(req ShowListRequest, resp *ShowListResponse) error {
	shows, err := s.daemon.ListShows(s.ctx, strings.TrimSpace(req.Station))
	if err != nil {
		return err
	}
	resp.Shows = api.FromShows(shows)
	return nil
}

func (s *service) ShowAdd(req ShowAddRequest, resp *ShowAddResponse) error {
	s.log().Debug("show add requested", logging.String("show", req.Name))
	unit := store.TTLDays
	if trimmed := strings.TrimSpace(req.TTLUnit); trimmed != "" {
		parsed, ok := store.ParseTTLUnit(trimmed)
		if !ok {
			return fmt.Errorf("unknown ttl unit %q", req.TTLUnit)
		}
		unit = parsed
	}
	show := &store.Show{
		Name:            req.Name,
		SchedulePattern: req.SchedulePattern,
		DurationMinutes: req.DurationMinutes,
		RetentionDays:   req.RetentionDays,
		TTLUnit:         unit,
		Active:          true,
	}
	stored, err := s.daemon.AddShow(s.ctx, req.Station, show)
	if err != nil {
		return err
	}
	resp.Show = api.FromShow(stored)
	return nil
}

func (s *service) ShowSetActive(req ShowSetActiveRequest, resp *ShowSetActiveResponse) error {
	updated, err := s.daemon.SetShowActive(s.ctx, req.Ref, req.Active)
	if err != nil {
		return err
	}
	resp.Show = api.FromShow(updated)
	s.log().Info("show scheduling toggled",
		logging.Int64(logging.FieldShowID, updated.ID),
		logging.Bool("active", updated.Active))
	return nil
}

func (s *service) RecordingList(req RecordingListRequest, resp *RecordingListResponse) error {
	recs, err := s.daemon.ListRecordings(s.ctx, strings.TrimSpace(req.Show))
	if err != nil {
		return err
	}
	resp.Recordings = api.FromRecordings(recs)
	return nil
}

func (s *service) RecordingRemove(req RecordingRemoveRequest, resp *RecordingRemoveResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid recording id %d", req.ID)
	}
	removed, err := s.daemon.RemoveRecording(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Removed = true
	resp.ReclaimedBytes = removed.FileSizeBytes
	s.log().Info("recording removed via IPC",
		logging.Int64("recording_id", req.ID),
		logging.Int64("reclaimed_bytes", removed.FileSizeBytes))
	return nil
}

func (s *service) RecordingImport(req RecordingImportRequest, resp *RecordingImportResponse) error {
	opts := recorder.ImportOptions{}
	if trimmed := strings.TrimSpace(req.RecordedAt); trimmed != "" {
		parsed, err := time.Parse(time.RFC3339, trimmed)
		if err != nil {
			return fmt.Errorf("invalid recorded_at %q: %w", req.RecordedAt, err)
		}
		opts.RecordedAt = parsed
	}
	if trimmed := strings.TrimSpace(req.TTLUnit); trimmed != "" {
		unit, ok := store.ParseTTLUnit(trimmed)
		if !ok {
			return fmt.Errorf("unknown ttl unit %q", req.TTLUnit)
		}
		opts.Override = &retention.Override{Value: req.TTLValue, Unit: unit}
	}
	stored, err := s.daemon.ImportRecording(s.ctx, req.Show, req.SourcePath, opts)
	if err != nil {
		return err
	}
	resp.Recording = api.FromRecording(stored)
	s.log().Info("recording imported via IPC",
		logging.Int64("recording_id", stored.ID),
		logging.String("filename", stored.Filename))
	return nil
}

func (s *service) RecordingExtend(req RecordingExtendRequest, resp *RecordingExtendResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid recording id %d", req.ID)
	}
	expiry, err := s.daemon.ExtendRecording(s.ctx, req.ID, req.AdditionalDays)
	if err != nil {
		return err
	}
	resp.ExpiresAt = expiryString(expiry)
	return nil
}

func (s *service) RecordingSetTTL(req RecordingSetTTLRequest, resp *RecordingSetTTLResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid recording id %d", req.ID)
	}
	if req.Clear {
		expiry, err := s.daemon.ClearRecordingTTL(s.ctx, req.ID)
		if err != nil {
			return err
		}
		resp.ExpiresAt = expiryString(expiry)
		return nil
	}
	unit, ok := store.ParseTTLUnit(req.Unit)
	if !ok {
		return fmt.Errorf("unknown ttl unit %q", req.Unit)
	}
	expiry, err := s.daemon.SetRecordingTTL(s.ctx, req.ID, req.Value, unit)
	if err != nil {
		return err
	}
	resp.ExpiresAt = expiryString(expiry)
	return nil
}

func (s *service) Test(req TestRequest, resp *TestResponse) error {
	ref := strings.TrimSpace(req.Station)
	s.log().Debug("stream test requested", logging.String("station", ref))
	if ref == "" {
		verdicts, err := s.daemon.TestAllStations(s.ctx)
		if err != nil {
			return err
		}
		resp.Verdicts = api.FromVerdicts(verdicts)
		return nil
	}
	verdict, err := s.daemon.TestStation(s.ctx, ref)
	if err != nil {
		return err
	}
	resp.Verdicts = []TestVerdict{api.FromVerdict(verdict)}
	return nil
}

func (s *service) Record(req RecordRequest, resp *RecordResponse) error {
	s.log().Debug("on-demand recording requested", logging.String("show", req.Show))
	duration := time.Duration(req.DurationMinutes) * time.Minute
	show, err := s.daemon.StartRecording(s.ctx, req.Show, duration)
	if err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Show = show.Name
	resp.Message = fmt.Sprintf("recording session started for %q", show.Name)
	s.log().Info("on-demand session launched via IPC",
		logging.Int64(logging.FieldShowID, show.ID),
		logging.String("show", show.Name))
	return nil
}

func (s *service) HousekeepingSweep(_ HousekeepingSweepRequest, resp *HousekeepingSweepResponse) error {
	result, err := s.daemon.RunHousekeeping(s.ctx)
	if err != nil {
		return err
	}
	resp.Result = api.FromHousekeeping(result)
	return nil
}

func (s *service) RetentionSweep(_ RetentionSweepRequest, resp *RetentionSweepResponse) error {
	result, err := s.daemon.RunRetentionSweep(s.ctx)
	if err != nil {
		return err
	}
	resp.Result = api.FromRetention(result)
	return nil
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	logPath := s.daemon.LogPath()
	if logPath == "" {
		resp.Offset = 0
		return nil
	}
	wait := time.Duration(req.WaitMillis) * time.Millisecond
	if wait <= 0 && req.Follow {
		wait = time.Second
	}
	options := logs.TailOptions{
		Offset: req.Offset,
		Limit:  req.Limit,
		Follow: req.Follow,
		Wait:   wait,
	}
	ctx := s.ctx
	if req.Follow && wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, wait+500*time.Millisecond)
		defer cancel()
	}
	result, err := logs.Tail(ctx, logPath, options)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			resp.Offset = result.Offset
			return nil
		}
		return err
	}
	resp.Lines = result.Lines
	resp.Offset = result.Offset
	return nil
}

func (s *service) DatabaseHealth(_ DatabaseHealthRequest, resp *DatabaseHealthResponse) error {
	health, err := s.daemon.DatabaseHealth(s.ctx)
	if err != nil && health.Error == "" {
		return err
	}
	resp.DBPath = health.DBPath
	resp.DatabaseExists = health.DatabaseExists
	resp.DatabaseReadable = health.DatabaseReadable
	resp.TablesPresent = health.TablesPresent
	resp.MissingTables = append(resp.MissingTables, health.MissingTables...)
	resp.IntegrityCheck = health.IntegrityCheck
	resp.TotalRecordings = health.TotalRecordings
	resp.Error = health.Error
	if err != nil {
		return err
	}
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
