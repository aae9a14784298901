// Package agentconfig patches the agent's own openclaw.json inside an
// instance directory.
//
// The file belongs to the agent: it is written by onboarding and read by
// the gateway. spawn-ctl only ever sets a handful of paths and leaves every
// other byte as it found it. Each operation reads the file, applies its
// sets with sjson, and renames a temp file over the original.
//
// Before onboarding there is no file. Operations then return an error
// matching errors.ErrConfigUnavailable and log it at debug level; callers
// that treat the state as benign wrap the call in IgnoreUnavailable.
package agentconfig
