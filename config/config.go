package config

// Debug switches on verbose logging and the pretty console handler.
// Flip to false for release builds.
const Debug = true
