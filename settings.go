package h2

// Setting identifiers (RFC 7540 §6.5.2).
const (
	SettingHeaderTableSize      uint16 = 0x1
	SettingEnablePush           uint16 = 0x2
	SettingMaxConcurrentStreams uint16 = 0x3
	SettingInitialWindowSize    uint16 = 0x4
	SettingMaxFrameSize         uint16 = 0x5
	SettingMaxHeaderListSize    uint16 = 0x6
)

const (
	defaultHeaderTableSize   = 4096
	defaultEnablePush        = 1
	defaultInitialWindowSize = 65535
	defaultMaxFrameSize      = 16384
	maxAllowedFrameSize      = 16777215
	maxWindowSize            = 1<<31 - 1
)

// Settings is one side's view of the six RFC 7540 SETTINGS values. A
// Connection keeps two: what it has advertised (local) and what its
// peer has advertised (remote).
type Settings struct {
	HeaderTableSize      uint32
	EnablePush           bool
	MaxConcurrentStreams uint32 // 0 means unlimited
	InitialWindowSize    uint32
	MaxFrameSize         uint32
	MaxHeaderListSize    uint32 // 0 means unlimited

	hasMaxConcurrentStreams bool
	hasMaxHeaderListSize    bool
}

// defaultSettings returns the RFC 7540 §6.5.2 default values.
func defaultSettings() Settings {
	return Settings{
		HeaderTableSize:   defaultHeaderTableSize,
		EnablePush:        true,
		InitialWindowSize: defaultInitialWindowSize,
		MaxFrameSize:      defaultMaxFrameSize,
	}
}

// apply sets the field named by id to value, validating range per
// RFC 7540 §6.5.2. Unknown identifiers are ignored, not rejected.
func (s *Settings) apply(id uint16, value uint32) error {
	switch id {
	case SettingHeaderTableSize:
		s.HeaderTableSize = value
	case SettingEnablePush:
		if value > 1 {
			return connError(ProtocolError, "ENABLE_PUSH value %d not 0 or 1", value)
		}
		s.EnablePush = value == 1
	case SettingMaxConcurrentStreams:
		s.MaxConcurrentStreams = value
		s.hasMaxConcurrentStreams = true
	case SettingInitialWindowSize:
		if value > maxWindowSize {
			return connError(FlowControlError, "INITIAL_WINDOW_SIZE %d exceeds 2^31-1", value)
		}
		s.InitialWindowSize = value
	case SettingMaxFrameSize:
		if value < defaultMaxFrameSize || value > maxAllowedFrameSize {
			return connError(ProtocolError, "MAX_FRAME_SIZE %d out of [%d, %d]", value, defaultMaxFrameSize, maxAllowedFrameSize)
		}
		s.MaxFrameSize = value
	case SettingMaxHeaderListSize:
		s.MaxHeaderListSize = value
		s.hasMaxHeaderListSize = true
	}
	return nil
}
