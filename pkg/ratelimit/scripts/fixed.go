package scripts

// Fixed window state is a plain integer counter at a key whose name
// already encodes the window slot (floor(now/window)); the caller
// computes the slot suffix before invoking the script, since the key
// name must be known before EVALSHA is issued. KEYS[1] is the full slot
// key, KEYS[2] is a pointer key holding KEYS[1]'s own name so that
// Reset, which is not told which window a key was last used with, can
// still find and clear exactly the live slot. ARGV[1] is the window in
// seconds, ARGV[2] is the cap.

var FixedAttempt = register("fixed:attempt", `
local window = tonumber(ARGV[1])
local cap = tonumber(ARGV[2])

local current = redis.call('INCR', KEYS[1])
if current == 1 then
  redis.call('EXPIRE', KEYS[1], window)
end
redis.call('SET', KEYS[2], KEYS[1], 'EX', window)

local ttl = redis.call('TTL', KEYS[1])
if ttl < 0 then ttl = window end

if current > cap then
  return {0, ttl, 0, cap}
end
return {1, 0, cap - current, cap}
`)

var FixedStatus = register("fixed:status", `
local window = tonumber(ARGV[1])
local cap = tonumber(ARGV[2])

local current = tonumber(redis.call('GET', KEYS[1])) or 0
local ttl = redis.call('TTL', KEYS[1])
if ttl < 0 then ttl = window end

local remaining = cap - current
if remaining < 0 then remaining = 0 end

local retry_after = 0
if current > cap then retry_after = ttl end

return {current, remaining, retry_after, cap}
`)
