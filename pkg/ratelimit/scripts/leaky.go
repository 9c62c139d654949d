package scripts

// Leaky bucket state is a hash {level, last_leak} at KEYS[1]. ARGV[1] is
// burst (bucket capacity), ARGV[2] is rate (units drained per second).
// leak_interval = ceil(1/rate) seconds per unit. last_leak advances by
// whole leak_interval ticks whenever the leak rule fires, admitted or
// not, so a run of denials never double-counts elapsed time against an
// already-decremented level on the next call.

var LeakyAttempt = register("leaky:attempt", `
local now_parts = redis.call('TIME')
local now = tonumber(now_parts[1]) + tonumber(now_parts[2]) / 1e6
local burst = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local leak_interval = math.ceil(1 / rate)

local data = redis.call('HMGET', KEYS[1], 'level', 'last_leak')
local level = tonumber(data[1]) or 0
local last_leak = tonumber(data[2]) or now

local leaked = math.floor((now - last_leak) / leak_interval)
if leaked > 0 then
  level = math.max(0, level - leaked)
  last_leak = last_leak + leaked * leak_interval
end

local allowed = 0
local retry_after = 0
if level < burst then
  level = level + 1
  last_leak = now
  allowed = 1
else
  local residual = now - last_leak
  retry_after = math.ceil((level - burst + 1) * leak_interval - residual)
  if retry_after < 1 then retry_after = 1 end
end

redis.call('HMSET', KEYS[1], 'level', level, 'last_leak', last_leak)
redis.call('EXPIRE', KEYS[1], math.ceil(burst * leak_interval * 2) + 1)

if allowed == 1 then
  return {1, 0, burst - level, burst}
end
return {0, retry_after, 0, burst}
`)

var LeakyStatus = register("leaky:status", `
local now_parts = redis.call('TIME')
local now = tonumber(now_parts[1]) + tonumber(now_parts[2]) / 1e6
local burst = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local leak_interval = math.ceil(1 / rate)

local data = redis.call('HMGET', KEYS[1], 'level', 'last_leak')
local level = tonumber(data[1]) or 0
local last_leak = tonumber(data[2]) or now

local leaked = math.floor((now - last_leak) / leak_interval)
if leaked > 0 then
  level = math.max(0, level - leaked)
  last_leak = last_leak + leaked * leak_interval
end

local remaining = burst - level
local retry_after = 0
if level >= burst then
  local residual = now - last_leak
  retry_after = math.ceil((level - burst + 1) * leak_interval - residual)
  if retry_after < 1 then retry_after = 1 end
end

return {level, remaining, retry_after, burst}
`)
