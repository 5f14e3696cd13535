package rose

import (
	"fmt"
	"os"
	"time"
)

// ChannelType identifies what a ZMO animation channel animates.
type ChannelType uint32

const (
	ChannelEmpty    ChannelType = 1 << iota // 1
	ChannelPosition                         // 2
	ChannelRotation                         // 4
	ChannelNormal                           // 8
	ChannelAlpha                            // 16
	ChannelUV1                              // 32
	ChannelUV2                              // 64
	ChannelUV3                              // 128
	ChannelUV4                              // 256
	ChannelTexture                          // 512
	ChannelScale                            // 1024
)

func (t ChannelType) String() string {
	switch t {
	case ChannelEmpty:
		return "empty"
	case ChannelPosition:
		return "position"
	case ChannelRotation:
		return "rotation"
	case ChannelNormal:
		return "normal"
	case ChannelAlpha:
		return "alpha"
	case ChannelUV1:
		return "uv1"
	case ChannelUV2:
		return "uv2"
	case ChannelUV3:
		return "uv3"
	case ChannelUV4:
		return "uv4"
	case ChannelTexture:
		return "texture"
	case ChannelScale:
		return "scale"
	}
	return fmt.Sprintf("channel(%d)", uint32(t))
}

// Channel is one animation track targeting a bone (or morph target).
// Exactly one of the value slices is populated, matching Type:
// Vectors for position/normal, Rotations for rotation, Points for UV
// sets, Scalars for alpha/texture/scale. Empty channels carry no data.
type Channel struct {
	Type      ChannelType
	BoneIndex uint32
	Vectors   []Vector3
	Rotations []Quaternion
	Points    []Vector2
	Scalars   []float32
}

// Motion holds the contents of a ZMO file.
type Motion struct {
	FPS        uint32
	FrameCount uint32
	Channels   []Channel

	// Extended trailer (EZMO/3ZMO), absent in most files.
	FrameEvents             []uint16
	TotalAttackFrames       int
	InterpolationIntervalMs uint32
}

const zmoMagic = "ZMO0002"

// Duration returns the animation length.
func (m *Motion) Duration() time.Duration {
	if m.FPS == 0 {
		return 0
	}
	return time.Duration(float64(m.FrameCount) / float64(m.FPS) * float64(time.Second))
}

// ChannelsForBone returns all channels targeting the given bone.
func (m *Motion) ChannelsForBone(bone uint32) []Channel {
	var out []Channel
	for _, c := range m.Channels {
		if c.BoneIndex == bone {
			out = append(out, c)
		}
	}
	return out
}

// ReadMotion parses ZMO data including all frame streams.
func ReadMotion(data []byte) (*Motion, error) {
	return readMotion(data, false)
}

// ReadMotionInfo parses the ZMO header, the channel headers and the
// extended trailer, skipping the per-frame streams. Used by catalog scans
// where decoding every frame would be wasted work.
func ReadMotionInfo(data []byte) (*Motion, error) {
	return readMotion(data, true)
}

func readMotion(data []byte, headerOnly bool) (*Motion, error) {
	r := newReader(data)

	magic := r.cstring()
	if err := r.err(); err != nil {
		return nil, fmt.Errorf("zmo header: %w", err)
	}
	if magic != zmoMagic {
		return nil, fmt.Errorf("zmo: bad magic %q", magic)
	}

	m := &Motion{
		FPS:        r.uint32(),
		FrameCount: r.uint32(),
	}
	if err := r.err(); err != nil {
		return nil, fmt.Errorf("zmo header: %w", err)
	}

	channelCount := int(r.uint32())
	if !r.checkCount(channelCount, 8) {
		return nil, fmt.Errorf("zmo channel count: %w", r.err())
	}
	m.Channels = make([]Channel, 0, channelCount)
	for i := 0; i < channelCount; i++ {
		ct := ChannelType(r.uint32())
		bone := r.uint32()
		if !validChannelType(ct) {
			return nil, fmt.Errorf("zmo channel %d: invalid type %d", i, ct)
		}
		m.Channels = append(m.Channels, Channel{Type: ct, BoneIndex: bone})
	}
	if err := r.err(); err != nil {
		return nil, fmt.Errorf("zmo channels: %w", err)
	}

	if !headerOnly {
		// Frame data is interleaved: per frame, one sample per channel.
		frameSize := 0
		for _, c := range m.Channels {
			frameSize += sampleSize(c.Type)
		}
		if frameSize > 0 {
			if !r.checkCount(int(m.FrameCount), frameSize) {
				return nil, fmt.Errorf("zmo frames: %w", r.err())
			}
			for frame := uint32(0); frame < m.FrameCount; frame++ {
				for i := range m.Channels {
					readChannelSample(r, &m.Channels[i])
				}
			}
		}
		if err := r.err(); err != nil {
			return nil, fmt.Errorf("zmo frames: %w", err)
		}
	}

	m.readExtended(data)
	return m, nil
}

// sampleSize returns the per-frame byte size of one channel sample.
func sampleSize(t ChannelType) int {
	switch t {
	case ChannelPosition, ChannelNormal:
		return 12
	case ChannelRotation:
		return 16
	case ChannelUV1, ChannelUV2, ChannelUV3, ChannelUV4:
		return 8
	case ChannelAlpha, ChannelTexture, ChannelScale:
		return 4
	}
	return 0
}

func validChannelType(t ChannelType) bool {
	switch t {
	case ChannelEmpty, ChannelPosition, ChannelRotation, ChannelNormal,
		ChannelAlpha, ChannelUV1, ChannelUV2, ChannelUV3, ChannelUV4,
		ChannelTexture, ChannelScale:
		return true
	}
	return false
}

func readChannelSample(r *reader, c *Channel) {
	switch c.Type {
	case ChannelPosition, ChannelNormal:
		c.Vectors = append(c.Vectors, r.vector3())
	case ChannelRotation:
		c.Rotations = append(c.Rotations, r.quatWXYZ())
	case ChannelUV1, ChannelUV2, ChannelUV3, ChannelUV4:
		c.Points = append(c.Points, r.vector2())
	case ChannelAlpha, ChannelTexture, ChannelScale:
		c.Scalars = append(c.Scalars, r.float32())
	case ChannelEmpty:
		// no frame data
	}
}

// attackEvent reports whether a frame event id marks an attack frame.
// The id ranges come from the client's combat timing tables.
func attackEvent(ev uint16) bool {
	switch {
	case ev == 10:
		return true
	case ev >= 20 && ev <= 28:
		return true
	case ev >= 56 && ev <= 57:
		return true
	case ev >= 66 && ev <= 67:
		return true
	}
	return false
}

// readExtended looks for an EZMO/3ZMO trailer at the end of the file:
// the last 4 bytes name the extension, the 4 before them point at the
// frame event table. Absence or a malformed trailer is not an error.
func (m *Motion) readExtended(data []byte) {
	if len(data) < 8 {
		return
	}
	magic := string(data[len(data)-4:])
	if magic != "EZMO" && magic != "3ZMO" {
		return
	}

	r := newReader(data)
	r.seek(len(data) - 8)
	pos := int(r.uint32())
	r.seek(pos)

	eventCount := int(r.uint16())
	events := make([]uint16, 0, eventCount)
	attacks := 0
	for i := 0; i < eventCount; i++ {
		ev := r.uint16()
		events = append(events, ev)
		if attackEvent(ev) {
			attacks++
		}
	}

	var interval uint32
	if magic == "3ZMO" {
		interval = r.uint32()
	}
	if r.err() != nil {
		return
	}

	m.FrameEvents = events
	m.TotalAttackFrames = attacks
	m.InterpolationIntervalMs = interval
}

// LoadMotion reads and parses a ZMO file from disk.
func LoadMotion(path string) (*Motion, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading zmo %s: %w", path, err)
	}
	m, err := ReadMotion(data)
	if err != nil {
		return nil, fmt.Errorf("parsing zmo %s: %w", path, err)
	}
	return m, nil
}
