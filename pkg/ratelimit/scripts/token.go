package scripts

// Token bucket state is a hash {tokens, last_refill, max_tokens,
// attempts} at KEYS[1]. ARGV[1] is burst (bucket capacity), ARGV[2] is
// rate (tokens refilled per second). Refill carries an anti-thrash
// floor: min_refill = max(1, 2/rate) seconds between refills, so a
// tight loop of attempts at high rate cannot accrue fractional refills
// that push the observed bucket past its declared burst.

var TokenAttempt = register("token:attempt", `
local now_parts = redis.call('TIME')
local now = tonumber(now_parts[1]) + tonumber(now_parts[2]) / 1e6
local burst = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local min_refill = math.max(1, 2 / rate)

local data = redis.call('HMGET', KEYS[1], 'tokens', 'last_refill', 'attempts')
local tokens = tonumber(data[1])
if tokens == nil then tokens = burst end
local last_refill = tonumber(data[2]) or now
local attempts = (tonumber(data[3]) or 0) + 1

local elapsed = now - last_refill
if elapsed >= min_refill then
  tokens = math.min(burst, tokens + math.floor(elapsed * rate))
  last_refill = now
end

local allowed = 0
local retry_after = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
else
  local wait = min_refill - elapsed
  retry_after = 1 / rate
  if wait > retry_after then retry_after = wait end
  retry_after = math.ceil(retry_after)
  if retry_after < 1 then retry_after = 1 end
end

redis.call('HMSET', KEYS[1], 'tokens', tokens, 'last_refill', last_refill, 'max_tokens', burst, 'attempts', attempts)
redis.call('EXPIRE', KEYS[1], math.ceil(burst / rate * 2) + 1)

if allowed == 1 then
  return {1, 0, math.floor(tokens), burst}
end
return {0, retry_after, 0, burst}
`)

var TokenStatus = register("token:status", `
local now_parts = redis.call('TIME')
local now = tonumber(now_parts[1]) + tonumber(now_parts[2]) / 1e6
local burst = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local min_refill = math.max(1, 2 / rate)

local data = redis.call('HMGET', KEYS[1], 'tokens', 'last_refill')
local tokens = tonumber(data[1])
if tokens == nil then tokens = burst end
local last_refill = tonumber(data[2]) or now

local elapsed = now - last_refill
if elapsed >= min_refill then
  tokens = math.min(burst, tokens + math.floor(elapsed * rate))
end

local retry_after = 0
if tokens < 1 then
  local wait = min_refill - elapsed
  retry_after = 1 / rate
  if wait > retry_after then retry_after = wait end
  retry_after = math.ceil(retry_after)
  if retry_after < 1 then retry_after = 1 end
end

return {math.floor(tokens), math.floor(tokens), retry_after, burst}
`)
