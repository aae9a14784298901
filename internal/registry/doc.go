// Package registry stores the instance registry document.
//
// The document lives at ~/.openclaw-spawn/instances.json:
//
//	{
//	  "instances": {
//	    "alpha": {
//	      "container": "openclaw-alpha",
//	      "port": 18789,
//	      "created": "2026-01-02T03:04:05Z",
//	      "status": "created",
//	      "mounts": [{"host": "/home/me/notes", "container": "/home/node/.openclaw/workspace/user_shared/notes", "mode": "ro"}]
//	    }
//	  },
//	  "nextPort": 19009
//	}
//
// Every mutation is a locked read-modify-write of the whole document:
// a gofrs/flock lock on instances.json.lock, then a write to instances.json.tmp
// renamed over the original. Readers never lock. Unknown keys, at the top
// level or inside a record, survive the round trip.
//
// The status field is a hint for listings only; the container engine is
// always asked before any state-changing decision.
package registry
