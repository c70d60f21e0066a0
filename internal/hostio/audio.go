package hostio

import "github.com/ebitengine/oto/v3"

// SPU2 emulation is a non-goal; this stream exists only so the host
// audio device stays open and guest code polling for audio-ready
// conditions never stalls. Grounded on audio_backend_oto.go's
// oto.Context/Player setup, generalized from "mix the sound chip's ring
// buffer" to "emit silence forever."
type SilentStream struct {
	ctx    *oto.Context
	player *oto.Player
}

// silenceReader always fills its buffer with zeroes.
type silenceReader struct{}

func (silenceReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

// NewSilentStream opens a 48kHz stereo float32 oto context and starts an
// infinite silent player, matching the EE's SPU2 sample rate.
func NewSilentStream() (*SilentStream, error) {
	opts := &oto.NewContextOptions{
		SampleRate:   48000,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   0,
	}
	ctx, ready, err := oto.NewContext(opts)
	if err != nil {
		return nil, err
	}
	<-ready

	s := &SilentStream{ctx: ctx}
	s.player = ctx.NewPlayer(silenceReader{})
	s.player.Play()
	return s, nil
}

// Close stops the player; the host process audio device is released
// when the oto context itself is garbage collected.
func (s *SilentStream) Close() error {
	return s.player.Close()
}
