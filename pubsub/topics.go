package pubsub

// TopicPatternsReload - Published when pattern tables should be reloaded from disk. The value is the requesting
// report or request ID, for logging only.
const TopicPatternsReload = "trustserv_patterns_reload"
