package config

import "time"

const (
	// Filter store
	FilterCapacity  = 100      // Maximum stored patterns
	FilterNamespace = "ouispy" // Persistence namespace for filter entries

	// Detection timing
	DebounceWindow = 250 * time.Millisecond  // Min gap between qualifying-hit timestamp advances
	StaleWindow    = 12000 * time.Millisecond // Max age of last sighting still counted as present
	PresenceGap    = 3000 * time.Millisecond  // Min gap between emitted alerts
	DetectTick     = 80 * time.Millisecond    // Detection polling cadence

	// Fox hunt timing
	FoxLostTimeout    = 4000 * time.Millisecond // Lock dropped after this long without a sighting
	FoxTick           = 10 * time.Millisecond   // Proximity loop cadence
	FoxPulse          = 60 * time.Millisecond   // Length of one proximity pulse
	FoxSaturationRSSI = -25                     // At or above: continuous tone
	FoxFarInterval    = 2800 * time.Millisecond // Interval below the weakest band
	FoxAcquiredPulses = 3                       // Pulses played on first acquisition
	FoxAcquiredOn     = 80 * time.Millisecond
	FoxAcquiredOff    = 60 * time.Millisecond

	// Baseline survey
	BaselineMinDuration     = 5 * time.Second
	BaselineMaxDuration     = 600 * time.Second
	BaselineDefaultDuration = 60 * time.Second
	RSSIFloorMin            = -100 // dBm
	RSSIFloorMax            = -10  // dBm
	BaselineMaxDevices      = 512  // Working-map bound per session
	PayloadDeviceBudget     = 50   // Devices allowed to carry a captured payload
	PayloadByteBudget       = 10 * 1024

	// Observation bounds
	MaxPayloadLen = 64 // Raw advertisement bytes kept per observation
	MaxNameLen    = 64 // Name bytes kept per observation

	// Shared state locking
	CallbackLockTimeout   = 20 * time.Millisecond  // Radio callback path
	ForegroundLockTimeout = 100 * time.Millisecond // Reporting / control path

	// Actuator
	BuzzerFrequency = 2000 // Hz
	BuzzerDuty      = 127  // ~50% of 255
	BeepDuration    = 200 * time.Millisecond
	BeepPause       = 150 * time.Millisecond
	StartupBeeps    = 2
	AlertBeeps      = 1
	BaselineBeeps   = 3

	// Scanner
	WiFiScanPause   = 150 * time.Millisecond // Pause between full Wi-Fi scans
	WiFiScanTimeout = 20 * time.Second       // Upper bound on one nmcli/iw invocation

	// RSSI to distance estimation (proximity display)
	MeasuredPower = -59.0 // RSSI at 1 meter (dBm)
	PathLossExp   = 2.5   // Path loss exponent (N)

	// Display
	TargetFPS     = 30
	RingCount     = 4
	SweepSpeedRPM = 30   // Radar sweep rotations per minute
	SweepTrailDeg = 60.0 // Degrees of trailing glow behind sweep
	AspectRatio   = 0.5  // Terminal char aspect correction (chars are ~2:1 tall)
	MaxRange      = 30.0
	RSSIHistory   = 120 // Samples kept for the fox hunt sparkline

	// App
	AppName    = "OUI-SPY"
	AppVersion = "1.0"
)
