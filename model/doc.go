// Package model defines the gateway contract Switchboard requires from an
// external tool-calling completion service, normalized across vendors, plus a
// scripted mock for tests. Concrete adapters live in the openai and anthropic
// subpackages.
package model
