package jukebox

import "log/slog"

// Tick is the end of track poll. When the tracker thinks the track is
// playing but the engine went quiet, the track has ended and the session
// moves on. Returns whether a transition happened.
func (s *Session) Tick() (bool, error) {
	if s.tracker.State() != StatePlaying || s.engine.Busy() {
		return false, nil
	}
	s.tracker.Stop()
	return true, s.Transition()
}

// Transition fades out the current track, records it in the history and
// loads the next one in the queue. Playback resumes unless the user is
// dragging the seek slider, in which case it resumes when the drag ends.
func (s *Session) Transition() error {
	next, err := s.upNext()
	if s.track != "" {
		s.engine.Fadeout(s.fade)
		s.pushHistory(s.track)
	}
	if err != nil {
		s.engine.Stop()
		s.engine.Unload()
		s.clearTrack()
		s.status = "Queue is empty"
		return err
	}

	if err := s.load(next); err != nil {
		return err
	}
	s.status = ""
	if s.dragging {
		s.resumeOnRelease = true
	} else {
		s.resume()
	}
	slog.Info("transitioned", "track", next, "playlist", s.playlist.Name())
	return nil
}

// upNext picks the entry after the loaded track. When the cursor is not on
// the loaded track (it was removed, deleted or belongs to another playlist)
// the entry under the cursor has not been played yet and goes first.
func (s *Session) upNext() (string, error) {
	cur, err := s.playlist.Current()
	if err != nil {
		return "", err
	}
	if s.track == "" || cur != s.track {
		return cur, nil
	}
	return s.playlist.Advance(1)
}

func (s *Session) pushHistory(name string) {
	s.history = append(s.history, name)
	if over := len(s.history) - HistorySize; over > 0 {
		s.history = s.history[over:]
	}
}
