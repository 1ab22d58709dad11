package main

import (
	"fmt"

	"github.com/ebitengine/oto/v3"

	"github.com/chase3718/pi-ano/internal/tone"
)

// audioTones plays voices on the host sound card.
type audioTones struct {
	*tone.SquareMixer
	player *oto.Player
}

// openAudio opens the default output device and starts playback of a silent
// mixer.
func openAudio(sampleRate int) (*audioTones, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	mix := tone.NewSquareMixer(sampleRate, 0.2)
	player := ctx.NewPlayer(mix)
	player.Play()
	return &audioTones{SquareMixer: mix, player: player}, nil
}

func (a *audioTones) Close() error {
	if err := a.player.Close(); err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}
