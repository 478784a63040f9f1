// File: internal/core/system.go
package core

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/librescoot/librefsm"

	"shiftlight-service/internal/config"
	"shiftlight-service/internal/fsm"
	"shiftlight-service/internal/hardware"
	"shiftlight-service/internal/logger"
	"shiftlight-service/internal/messaging"
	"shiftlight-service/internal/netio"
	"shiftlight-service/internal/policy"
	"shiftlight-service/internal/protocol"
	"shiftlight-service/internal/render"
	"shiftlight-service/internal/telemetry"
	"shiftlight-service/internal/types"
)

type controlKind int

const (
	controlBrightness controlKind = iota
	controlGame
	controlSweep
)

// controlRequest carries an external command into the scheduler loop.
// Redis listeners and the button handler run on their own goroutines; the
// loop is the only place commands take effect.
type controlRequest struct {
	kind       controlKind
	game       string
	brightness float64
}

type ShiftLightSystem struct {
	cfg    *config.Config
	logger *logger.Logger

	machine  *librefsm.Machine
	selector *protocol.Selector
	state    *telemetry.State
	renderer *render.Renderer
	tuning   policy.Tuning

	redis   MessagingClient
	sources []PacketSource
	ring    *hardware.Ws2812Ring
	display *hardware.Ssd1306
	button  *hardware.ModeButton

	controlChan chan controlRequest
	stopChan    chan struct{}
	doneChan    chan struct{}
	listen      func(bindAddress string, port int) (PacketSource, error)

	// Scheduler-owned; touched only from the run goroutine (and from FSM
	// entry actions, which SendSync runs on that same goroutine).
	tickCount  uint64
	sweepStart uint64
	prevLive   bool
	prevFlash  bool
	netStarted bool
}

func NewShiftLightSystem(cfg *config.Config, l *logger.Logger) (*ShiftLightSystem, error) {
	profiles, err := protocol.ProfilesFor(cfg.Telemetry.Games)
	if err != nil {
		return nil, fmt.Errorf("invalid game selection: %w", err)
	}
	tuning, err := policy.TuningFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid tuning: %w", err)
	}

	return &ShiftLightSystem{
		cfg:         cfg,
		logger:      l.WithTag("core"),
		selector:    protocol.NewSelector(profiles, l),
		state:       telemetry.New(cfg.Telemetry.SmoothingAlpha, time.Duration(cfg.Telemetry.StalenessMs)*time.Millisecond),
		tuning:      tuning,
		controlChan: make(chan controlRequest, 8),
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
		listen: func(bindAddress string, port int) (PacketSource, error) {
			return netio.ListenUDP(bindAddress, port, l)
		},
	}, nil
}

func (s *ShiftLightSystem) Start() error {
	s.logger.Infof("Starting shift light system")

	if err := s.initHardware(); err != nil {
		return err
	}

	if err := s.initFSM(context.Background()); err != nil {
		return fmt.Errorf("failed to start state machine: %w", err)
	}

	s.initMessaging()

	if err := s.initSources(); err != nil {
		return err
	}

	if s.cfg.Button.Enabled {
		button, err := hardware.NewModeButton(s.cfg.Button.Chip, s.cfg.Button.Line, func() {
			if err := s.queueControl(controlRequest{kind: controlSweep}); err != nil {
				s.logger.Warnf("Button press dropped: %v", err)
			}
		}, s.logger)
		if err != nil {
			s.logger.Warnf("Mode button unavailable, continuing without it: %v", err)
		} else {
			s.button = button
		}
	}

	go s.run()

	s.logger.Infof("System started successfully")
	return nil
}

func (s *ShiftLightSystem) initHardware() error {
	if s.renderer != nil {
		return nil
	}

	ring, err := hardware.NewWs2812Ring(s.cfg.Ring.SpiDevice, s.cfg.Ring.LedCount, s.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize LED ring: %w", err)
	}
	s.ring = ring

	var disp render.Display
	if s.cfg.Display.Enabled {
		d, err := hardware.NewSsd1306(s.cfg.Display.I2CDevice, s.cfg.Display.I2CAddr,
			s.cfg.Display.Width, s.cfg.Display.Height, s.logger)
		if err != nil {
			// Ring-only operation is still useful.
			s.logger.Warnf("Display unavailable, continuing without it: %v", err)
		} else {
			s.display = d
			disp = d
		}
	}

	s.renderer = render.New(ring, disp, s.cfg, s.logger)
	return nil
}

func (s *ShiftLightSystem) initMessaging() {
	if !s.cfg.Redis.Enabled {
		s.logger.Infof("Redis messaging disabled")
		return
	}

	if s.redis == nil {
		s.redis = messaging.NewRedisClient(s.cfg.Redis.Host, s.cfg.Redis.Port, s.logger, messaging.Callbacks{
			BrightnessCallback: s.handleBrightnessRequest,
			GameCallback:       s.handleGameRequest,
			TestCallback:       s.handleTestRequest,
		})
	}

	if err := s.redis.Connect(); err != nil {
		// The device is useful without messaging; keep rendering.
		s.logger.Warnf("Continuing without Redis: %v", err)
		s.redis = nil
		return
	}

	s.applyPersistedSettings()

	if err := s.redis.StartListening(); err != nil {
		s.logger.Warnf("Failed to start Redis listeners: %v", err)
	}
}

func (s *ShiftLightSystem) applyPersistedSettings() {
	if v, err := s.redis.GetSetting("shift-light.brightness"); err == nil && v != "" {
		if b, perr := strconv.ParseFloat(v, 64); perr == nil && b >= 0 && b <= 1 {
			s.renderer.SetBrightness(b)
			s.logger.Infof("Restored brightness %.2f from settings", b)
		} else {
			s.logger.Warnf("Ignoring persisted brightness %q", v)
		}
	}
	if v, err := s.redis.GetSetting("shift-light.game"); err == nil && v != "" {
		if serr := s.selectGame(v); serr != nil {
			s.logger.Warnf("Ignoring persisted game %q: %v", v, serr)
		} else {
			s.logger.Infof("Restored game selection %q from settings", v)
		}
	}
}

func (s *ShiftLightSystem) initSources() error {
	if s.sources != nil {
		return nil
	}
	s.netStarted = true
	return s.openSources()
}

// openSources reconciles the bound sockets with the active profiles: one
// socket per distinct port, reusing sockets whose port survives the switch.
// New ports are bound before anything is closed, so a failed bind leaves
// the previous ingress fully intact.
func (s *ShiftLightSystem) openSources() error {
	needed := make(map[int]bool)
	for _, p := range s.selector.Profiles() {
		needed[p.Port] = true
	}

	existing := make(map[int]PacketSource, len(s.sources))
	for _, src := range s.sources {
		existing[src.Port()] = src
	}

	var opened []PacketSource
	for port := range needed {
		if _, ok := existing[port]; ok {
			continue
		}
		src, err := s.listen(s.cfg.Network.BindAddress, port)
		if err != nil {
			for _, open := range opened {
				open.Close()
			}
			return fmt.Errorf("failed to open telemetry port %d: %w", port, err)
		}
		opened = append(opened, src)
	}

	next := opened
	for port, src := range existing {
		if needed[port] {
			next = append(next, src)
		} else {
			src.Close()
		}
	}
	s.sources = next
	return nil
}

// selectGame swaps the active profile set. "auto" activates every known
// profile with the configured list deciding nothing; an explicit name
// activates just that game.
func (s *ShiftLightSystem) selectGame(name string) error {
	var names []string
	if name == "auto" {
		names = []string{
			string(types.ProtocolDirtRally),
			string(types.ProtocolForza),
			string(types.ProtocolGenericJSON),
		}
	} else {
		names = []string{name}
	}

	profiles, err := protocol.ProfilesFor(names)
	if err != nil {
		return err
	}

	prev := s.selector
	s.selector = protocol.NewSelector(profiles, s.logger)

	if s.netStarted {
		if err := s.openSources(); err != nil {
			s.selector = prev
			return err
		}
	}
	return nil
}

// === Control surface (Redis listeners, button) ===

func (s *ShiftLightSystem) handleBrightnessRequest(brightness float64) error {
	return s.queueControl(controlRequest{kind: controlBrightness, brightness: brightness})
}

func (s *ShiftLightSystem) handleGameRequest(game string) error {
	return s.queueControl(controlRequest{kind: controlGame, game: game})
}

func (s *ShiftLightSystem) handleTestRequest(string) error {
	return s.queueControl(controlRequest{kind: controlSweep})
}

func (s *ShiftLightSystem) queueControl(req controlRequest) error {
	select {
	case s.controlChan <- req:
		return nil
	default:
		return fmt.Errorf("control queue full")
	}
}

// === Scheduler loop ===

func (s *ShiftLightSystem) run() {
	defer close(s.doneChan)

	interval := time.Second / time.Duration(s.cfg.Ring.TickHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Infof("Scheduler running at %d Hz", s.cfg.Ring.TickHz)

	for {
		select {
		case <-s.stopChan:
			return
		case req := <-s.controlChan:
			s.handleControl(req)
		case now := <-ticker.C:
			s.tick(now)
		}
	}
}

func (s *ShiftLightSystem) handleControl(req controlRequest) {
	switch req.kind {
	case controlBrightness:
		s.renderer.SetBrightness(req.brightness)
		s.logger.Infof("Brightness set to %.2f", req.brightness)
		if s.redis != nil {
			if err := s.redis.PublishBrightness(s.renderer.Brightness()); err != nil {
				s.logger.Warnf("Failed to publish brightness: %v", err)
			}
		}
	case controlGame:
		if err := s.selectGame(req.game); err != nil {
			s.logger.Warnf("Game selection %q rejected: %v", req.game, err)
		} else {
			s.logger.Infof("Active game set to %s", req.game)
		}
	case controlSweep:
		s.logger.Infof("Ring test requested")
		s.sendEvent(fsm.EvSweepRequest)
	}
}

// tick is one scheduler iteration: drain the sockets, advance the telemetry
// state, derive the state machine edges and render.
func (s *ShiftLightSystem) tick(now time.Time) {
	s.tickCount++

	for _, src := range s.sources {
		_, err := src.Drain(func(raw []byte) {
			if sample, ok := s.selector.SelectAndDecode(raw); ok {
				s.state.Ingest(sample, now)
			}
		})
		if err != nil {
			s.logger.Warnf("Drain failed on port %d: %v", src.Port(), err)
		}
	}

	s.state.Tick(now)
	view := s.state.View()

	if s.machine.CurrentState() == fsm.StateInit {
		s.renderSweepFrame()
		return
	}

	if !view.Live {
		if s.prevLive {
			s.sendEvent(fsm.EvTelemetryStale)
		}
		s.prevLive = false
		s.prevFlash = false
		s.renderer.Render(policy.ComputeIntent(view, s.tuning), s.tickCount)
		return
	}

	if !s.prevLive {
		s.sendEvent(fsm.EvTelemetryLive)
	}
	s.prevLive = true

	intent := policy.ComputeIntent(view, s.tuning)

	if intent.Flashing && !s.prevFlash {
		s.sendEvent(fsm.EvRedlineOn)
	} else if !intent.Flashing && s.prevFlash {
		s.sendEvent(fsm.EvRedlineOff)
	}
	s.prevFlash = intent.Flashing

	s.renderer.Render(intent, s.tickCount)

	if s.redis != nil && s.tickCount%uint64(s.cfg.Ring.TickHz) == 0 {
		gear := policy.GearLabel(view.Gear, view.HasGear)
		if err := s.redis.PublishTelemetry(view.Rpm, gear, view.Source); err != nil {
			s.logger.Debugf("Telemetry publish failed: %v", err)
		}
	}
}

// renderSweepFrame runs the startup gauge sweep: the needle climbs through
// the full band range and falls back over two seconds. Frames go through
// the normal policy path so the sweep shows the real band colors.
func (s *ShiftLightSystem) renderSweepFrame() {
	total := uint64(2 * s.cfg.Ring.TickHz)
	elapsed := s.tickCount - s.sweepStart
	if elapsed >= total {
		s.sendEvent(fsm.EvSweepDone)
		return
	}

	half := total / 2
	var fill float64
	if elapsed < half {
		fill = float64(elapsed) / float64(half)
	} else {
		fill = float64(total-elapsed) / float64(half)
	}

	view := telemetry.View{Live: true, Rpm: fill * s.tuning.FallbackMaxRpm}
	intent := policy.ComputeIntent(view, s.tuning)
	intent.Flashing = false
	intent.TextLines = nil
	s.renderer.Render(intent, s.tickCount)
}

func (s *ShiftLightSystem) sendEvent(event librefsm.EventID) {
	if err := s.machine.SendSync(librefsm.Event{ID: event}); err != nil {
		s.logger.Debugf("Event %s not applicable: %v", event, err)
	}
}

func (s *ShiftLightSystem) Shutdown() {
	s.logger.Infof("Shutting down")
	close(s.stopChan)
	<-s.doneChan

	for _, src := range s.sources {
		if err := src.Close(); err != nil {
			s.logger.Warnf("Failed to close telemetry source: %v", err)
		}
	}
	if s.button != nil {
		s.button.Close()
	}
	if s.redis != nil {
		s.redis.Close()
	}
	if s.display != nil {
		s.display.Close()
	}
	if s.ring != nil {
		s.ring.Close()
	}
	s.logger.Infof("Shutdown complete")
}
