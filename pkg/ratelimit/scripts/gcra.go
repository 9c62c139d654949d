package scripts

// GCRA state is a single fractional epoch-second TAT ("theoretical
// arrival time") stored as a string at KEYS[1]. ARGV[1] is the window
// (period) in seconds, ARGV[2] is rate; limit = floor(rate*window),
// separation = period/limit is the minimum spacing between admissions
// that keeps the limiter exactly conformant.

var GCRAAttempt = register("gcra:attempt", `
local now_parts = redis.call('TIME')
local now = tonumber(now_parts[1]) + tonumber(now_parts[2]) / 1e6
local window = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local limit = math.floor(rate * window)
if limit < 1 then limit = 1 end
local separation = window / limit

local stored = tonumber(redis.call('GET', KEYS[1]))
local tat = now
if stored ~= nil and stored > now then tat = stored end

if tat - now <= window - separation then
  local new_tat = tat + separation
  redis.call('SET', KEYS[1], string.format('%.6f', new_tat))
  redis.call('EXPIRE', KEYS[1], math.ceil(window * 2))
  local retries_left = limit - math.floor((new_tat - now) / separation) - 1
  if retries_left < 0 then retries_left = 0 end
  return {1, 0, retries_left, limit}
end

local retry_after = math.ceil(tat - now - window + separation)
if retry_after < 1 then retry_after = 1 end
return {0, retry_after, 0, limit}
`)

var GCRAStatus = register("gcra:status", `
local now_parts = redis.call('TIME')
local now = tonumber(now_parts[1]) + tonumber(now_parts[2]) / 1e6
local window = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local limit = math.floor(rate * window)
if limit < 1 then limit = 1 end
local separation = window / limit

local stored = tonumber(redis.call('GET', KEYS[1]))
local tat = now
if stored ~= nil and stored > now then tat = stored end

local used = 0
if tat > now then
  used = math.floor((tat - now) / separation)
end
local remaining = limit - used
if remaining < 0 then remaining = 0 end

local retry_after = 0
if tat - now > window - separation then
  retry_after = math.ceil(tat - now - window + separation)
  if retry_after < 1 then retry_after = 1 end
end

return {used, remaining, retry_after, limit}
`)
