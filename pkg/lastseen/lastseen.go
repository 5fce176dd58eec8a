package lastseen

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cfengine/promise-engine/pkg/kvstore"
	"github.com/cfengine/promise-engine/pkg/metrics"
	"github.com/cfengine/promise-engine/pkg/types"
)

// alpha is the EWMA smoothing factor for connection quality: q' = alpha*dt
// + (1-alpha)*q_prev.
const alpha = 0.4

type qualityRecord struct {
	LastSeen time.Time `json:"lastseen"`
	Quality  float64   `json:"quality"`
}

// Store is the last-seen index, backed by one kvstore.DB handle.
type Store struct {
	db         kvstore.DB
	selfDigest string
	localAddrs map[string]struct{}
}

// New wraps db as a last-seen index. selfDigest and localAddrs are used to
// short-circuit Address2Hostkey for the machine's own addresses.
func New(db kvstore.DB, selfDigest string, localAddrs []string) *Store {
	set := make(map[string]struct{}, len(localAddrs)+2)
	set["127.0.0.1"] = struct{}{}
	set["::1"] = struct{}{}
	for _, a := range localAddrs {
		set[a] = struct{}{}
	}
	return &Store{db: db, selfDigest: selfDigest, localAddrs: set}
}

func hostkeyKey(hostkey string) []byte { return append([]byte("k"), hostkey...) }
func addressKey(address string) []byte { return append([]byte("a"), address...) }
func qualityKey(dir types.Direction, hostkey string) []byte {
	d := byte('o')
	if dir == types.Incoming {
		d = 'i'
	}
	return append([]byte{'q', d}, hostkey...)
}

// RecordSighting updates the forward, reverse, and quality entries for one
// observed connection. The first sighting of a (direction, hostkey) pair
// initializes quality to a definite zero rather than averaging against a
// nonexistent previous value.
func (s *Store) RecordSighting(hostkey, address string, dir types.Direction, timestamp time.Time) error {
	qkey := qualityKey(dir, hostkey)

	newQ := qualityRecord{LastSeen: timestamp}
	if raw, ok := s.db.Read(qkey); ok {
		var prev qualityRecord
		if err := json.Unmarshal(raw, &prev); err == nil {
			dt := timestamp.Sub(prev.LastSeen).Seconds()
			newQ.Quality = alpha*dt + (1-alpha)*prev.Quality
		}
	}

	data, err := json.Marshal(newQ)
	if err != nil {
		return fmt.Errorf("lastseen: encode quality record: %w", err)
	}
	if err := s.db.Write(qkey, data); err != nil {
		return fmt.Errorf("lastseen: write quality: %w", err)
	}
	if err := s.db.Write(hostkeyKey(hostkey), []byte(address)); err != nil {
		return fmt.Errorf("lastseen: write forward mapping: %w", err)
	}
	if err := s.db.Write(addressKey(address), []byte(hostkey)); err != nil {
		return fmt.Errorf("lastseen: write reverse mapping: %w", err)
	}

	metrics.LastSeenUpdatesTotal.WithLabelValues(dir.String()).Inc()
	return nil
}

// Address2Hostkey resolves address to the hostkey that last reported it,
// verifying the forward mapping agrees. A disagreement (or a missing
// forward entry) purges the reverse mapping and reports not-found rather
// than propagating an error — the asymmetry is expected to self-heal on
// the next sighting.
func (s *Store) Address2Hostkey(address string) (string, bool) {
	if _, ok := s.localAddrs[address]; ok {
		return s.selfDigest, true
	}

	raw, ok := s.db.Read(addressKey(address))
	if !ok {
		return "", false
	}
	hostkey := string(raw)

	fwd, ok := s.db.Read(hostkeyKey(hostkey))
	if !ok || string(fwd) != address {
		_ = s.db.Delete(addressKey(address))
		return "", false
	}
	return hostkey, true
}

// RemoveHost deletes the forward entry, the reverse entry (if it still
// agrees with the forward one), and both quality entries for hostkey.
// Reports whether a forward entry existed.
func (s *Store) RemoveHost(hostkey string) (bool, error) {
	fwd, had := s.db.Read(hostkeyKey(hostkey))
	if had {
		address := string(fwd)
		if rev, ok := s.db.Read(addressKey(address)); ok && string(rev) == hostkey {
			if err := s.db.Delete(addressKey(address)); err != nil {
				return had, fmt.Errorf("lastseen: remove reverse mapping: %w", err)
			}
		}
		if err := s.db.Delete(hostkeyKey(hostkey)); err != nil {
			return had, fmt.Errorf("lastseen: remove forward mapping: %w", err)
		}
	}
	if err := s.db.Delete(qualityKey(types.Incoming, hostkey)); err != nil {
		return had, fmt.Errorf("lastseen: remove incoming quality: %w", err)
	}
	if err := s.db.Delete(qualityKey(types.Outgoing, hostkey)); err != nil {
		return had, fmt.Errorf("lastseen: remove outgoing quality: %w", err)
	}
	return had, nil
}

// ScanAll iterates every hostkey entry, joining it with whichever
// direction-quality entries exist, invoking cb once per (hostkey,
// direction) pair observed. Iteration order is store-defined but stable
// for the lifetime of one cursor. cb returning false stops the scan.
func (s *Store) ScanAll(cb func(types.LastSeenRecord) bool) error {
	cur, err := s.db.NewCursor()
	if err != nil {
		return fmt.Errorf("lastseen: open cursor: %w", err)
	}
	defer cur.Close()

	for {
		key, value, ok := cur.Next()
		if !ok {
			break
		}
		if len(key) == 0 || key[0] != 'k' {
			continue
		}
		hostkey := string(key[1:])
		address := string(value)

		for _, dir := range []types.Direction{types.Incoming, types.Outgoing} {
			raw, ok := s.db.Read(qualityKey(dir, hostkey))
			if !ok {
				continue
			}
			var q qualityRecord
			if err := json.Unmarshal(raw, &q); err != nil {
				continue
			}
			rec := types.LastSeenRecord{
				HostKey:   hostkey,
				Address:   address,
				Direction: dir,
				LastSeen:  q.LastSeen,
				Quality:   q.Quality,
			}
			if !cb(rec) {
				return nil
			}
		}
	}
	return nil
}

// Count returns the number of distinct hostkeys known to the index.
func (s *Store) Count() (int, error) {
	cur, err := s.db.NewCursor()
	if err != nil {
		return 0, fmt.Errorf("lastseen: open cursor: %w", err)
	}
	defer cur.Close()

	n := 0
	for {
		key, _, ok := cur.Next()
		if !ok {
			break
		}
		if len(key) > 0 && key[0] == 'k' {
			n++
		}
	}
	return n, nil
}
