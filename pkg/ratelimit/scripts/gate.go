package scripts

// Concurrency gate state is a sorted set mapping request id -> lease
// acquisition time, at KEYS[1]. Opportunistic eviction removes any
// member whose score is older than now-timeout before every operation
// that reads or changes membership, so a crashed holder's slot is
// reclaimed the next time anyone touches the key. release is a plain
// ZREM and does not need a script since it is already a single atomic
// command.

var GateTryAcquire = register("gate:try_acquire", `
local now_parts = redis.call('TIME')
local now = tonumber(now_parts[1]) + tonumber(now_parts[2]) / 1e6
local max = tonumber(ARGV[1])
local timeout = tonumber(ARGV[2])
local request_id = ARGV[3]

redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - timeout)
local count = redis.call('ZCARD', KEYS[1])

if redis.call('ZSCORE', KEYS[1], request_id) then
  return {0, count}
end

if count >= max then
  return {0, count}
end

redis.call('ZADD', KEYS[1], now, request_id)
redis.call('EXPIRE', KEYS[1], math.ceil(timeout * 2))
return {1, count + 1}
`)

var GateCurrent = register("gate:current", `
local now_parts = redis.call('TIME')
local now = tonumber(now_parts[1]) + tonumber(now_parts[2]) / 1e6
local timeout = tonumber(ARGV[1])

redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - timeout)
return redis.call('ZCARD', KEYS[1])
`)

var GateCleanup = register("gate:cleanup", `
local now_parts = redis.call('TIME')
local now = tonumber(now_parts[1]) + tonumber(now_parts[2]) / 1e6
local timeout = tonumber(ARGV[1])

local before = redis.call('ZCARD', KEYS[1])
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - timeout)
local after = redis.call('ZCARD', KEYS[1])
return before - after
`)
