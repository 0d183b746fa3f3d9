package training

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/heliosml/profgnn/nn"
	"github.com/heliosml/profgnn/optim"
	"github.com/heliosml/profgnn/pkg/errors"
)

// Checkpoint captures everything needed to resume a run: model parameters,
// optimizer moments, scheduler position and the last completed epoch.
type Checkpoint struct {
	Epoch     int
	Model     map[string]nn.ParamState
	Optimizer optim.State
	Scheduler optim.SchedulerState
}

// latestName is the single-slot checkpoint file written when per-epoch
// retention is disabled; it is overwritten after every epoch.
const latestName = "latest.ckpt"

// SaveCheckpoint writes ck under dir and returns the written path. With
// perEpoch false the file is a single slot (latest.ckpt) overwritten each
// call; with perEpoch true each epoch gets its own file. The write goes
// through a temporary file and a rename so a crash never leaves a truncated
// checkpoint behind.
func SaveCheckpoint(dir string, ck *Checkpoint, perEpoch bool) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "creating checkpoint directory %q", dir)
	}

	name := latestName
	if perEpoch {
		name = fmt.Sprintf("epoch_%04d.ckpt", ck.Epoch)
	}
	path := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, name+".tmp-*")
	if err != nil {
		return "", errors.Wrapf(err, "creating temporary checkpoint in %q", dir)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(ck); err != nil {
		tmp.Close()
		return "", errors.Wrapf(err, "encoding checkpoint for epoch %d", ck.Epoch)
	}
	if err := tmp.Close(); err != nil {
		return "", errors.Wrapf(err, "closing temporary checkpoint %q", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", errors.Wrapf(err, "renaming checkpoint to %q", path)
	}
	return path, nil
}

// LoadCheckpoint reads a checkpoint file written by SaveCheckpoint.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening checkpoint %q", path)
	}
	defer f.Close()

	var ck Checkpoint
	if err := gob.NewDecoder(f).Decode(&ck); err != nil {
		return nil, errors.Wrapf(err, "decoding checkpoint %q", path)
	}
	return &ck, nil
}

// LoadLatestCheckpoint reads the most recent checkpoint under dir: the
// single slot when present, otherwise the highest-numbered per-epoch file.
// It returns os.ErrNotExist (wrapped) when no checkpoint has been written
// yet.
func LoadLatestCheckpoint(dir string) (*Checkpoint, error) {
	slot := filepath.Join(dir, latestName)
	if _, err := os.Stat(slot); err == nil {
		return LoadCheckpoint(slot)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading checkpoint directory %q", dir)
	}
	best := ""
	bestEpoch := -1
	for _, ent := range ents {
		if ent.IsDir() {
			continue
		}
		var epoch int
		if n, err := fmt.Sscanf(ent.Name(), "epoch_%d.ckpt", &epoch); n != 1 || err != nil {
			continue
		}
		if epoch > bestEpoch {
			bestEpoch = epoch
			best = ent.Name()
		}
	}
	if best == "" {
		return nil, errors.Wrapf(os.ErrNotExist, "no checkpoint in %q", dir)
	}
	return LoadCheckpoint(filepath.Join(dir, best))
}
